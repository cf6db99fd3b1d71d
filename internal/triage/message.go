package triage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"orderflow/internal/resolve"
)

// Intent is the upstream classifier's verdict for one message.
type Intent string

const (
	IntentOrderRequest   Intent = "order request"
	IntentProductInquiry Intent = "product inquiry"
)

// Message is one classified customer email: the structured output of the
// (external) classification step, consumed by the batch runner. A message
// may carry both order mentions and free-text questions; mixed emails are
// common.
type Message struct {
	ID        string            `json:"message_id"`
	Intent    Intent            `json:"intent"`
	Mentions  []resolve.Mention `json:"mentions,omitempty"`
	Questions []string          `json:"questions,omitempty"`
}

// ReadMessages decodes a JSON array of classified messages.
func ReadMessages(r io.Reader) ([]Message, error) {
	var msgs []Message
	if err := json.NewDecoder(r).Decode(&msgs); err != nil {
		return nil, fmt.Errorf("triage: decode messages: %w", err)
	}
	for i, m := range msgs {
		if m.ID == "" {
			return nil, fmt.Errorf("triage: message %d: missing message_id", i)
		}
	}
	return msgs, nil
}

// LoadMessages reads classified messages from a file path.
func LoadMessages(path string) ([]Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("triage: open messages: %w", err)
	}
	defer f.Close()
	return ReadMessages(f)
}
