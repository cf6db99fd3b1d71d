package batch

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"orderflow/internal/order"
	"orderflow/internal/triage"
)

// MessageResult is the processed outcome of one classified message.
type MessageResult struct {
	MessageID string                 `json:"message_id"`
	Intent    triage.Intent          `json:"intent"`
	Order     *order.Result          `json:"order,omitempty"`
	Inquiries []triage.InquiryResult `json:"inquiries,omitempty"`
}

// Runner fans a batch of messages over worker goroutines. Lines within one
// order stay strictly sequential (the ledger's ordering contract); messages
// are independent of each other apart from the shared stock, which the
// catalog serializes.
//
// With Workers > 1, stock contention between orders resolves in scheduling
// order, so shortfall outcomes may differ between runs. Workers = 1 keeps a
// batch fully reproducible.
type Runner struct {
	asm      *order.Assembler
	inquirer *triage.Inquirer
	workers  int
}

// New builds a runner. workers <= 0 means 1.
func New(asm *order.Assembler, inquirer *triage.Inquirer, workers int) *Runner {
	if workers <= 0 {
		workers = 1
	}
	return &Runner{asm: asm, inquirer: inquirer, workers: workers}
}

// Run processes every message and returns results in input order. The first
// fatal error (backend failure, caller error) cancels the remaining work.
func (r *Runner) Run(ctx context.Context, msgs []triage.Message) ([]MessageResult, error) {
	results := make([]MessageResult, len(msgs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, m := range msgs {
		g.Go(func() error {
			res, err := r.processOne(ctx, m)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) processOne(ctx context.Context, m triage.Message) (MessageResult, error) {
	res := MessageResult{MessageID: m.ID, Intent: m.Intent}

	if len(m.Mentions) > 0 {
		ord, err := r.asm.Assemble(ctx, m.Mentions)
		if err != nil {
			return res, fmt.Errorf("batch: message %s: %w", m.ID, err)
		}
		res.Order = &ord
	}

	for _, q := range m.Questions {
		ans, err := r.inquirer.Answer(ctx, q)
		if err != nil {
			return res, fmt.Errorf("batch: message %s: %w", m.ID, err)
		}
		res.Inquiries = append(res.Inquiries, ans)
	}

	zap.S().Infow("message processed",
		"message", m.ID,
		"intent", m.Intent,
		"order_lines", lineCount(res.Order),
		"inquiries", len(res.Inquiries),
	)
	return res, nil
}

func lineCount(o *order.Result) int {
	if o == nil {
		return 0
	}
	return len(o.Lines)
}
