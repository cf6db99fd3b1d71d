package embedding

import (
	"context"
	"errors"
	"fmt"
)

// Embedder turns texts into dense vectors. Implementations must be safe for
// concurrent use and must honor ctx cancellation on any blocking call.
type Embedder interface {
	// Embed returns one vector per input text, all of the same dimension.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ErrEmptyInput is returned when Embed is called with no texts.
var ErrEmptyInput = errors.New("embedding: no input texts")

// BackendError marks an embedding backend failure. The orchestrating layer
// matches it with errors.As to retry or degrade to fuzzy-only resolution.
type BackendError struct {
	Backend string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("embedding backend %s: %v", e.Backend, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// IsBackendError reports whether err carries a BackendError anywhere in its
// chain.
func IsBackendError(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}
