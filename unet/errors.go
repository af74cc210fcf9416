package unet

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrShape is wrapped by every shape validation failure.
var ErrShape = errors.New("shape mismatch")

// ShapeError reports a tensor whose size does not match what a stage expects.
type ShapeError struct {
	Stage string
	Got   []int64
	Want  []int64
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%v at %s: got %v, want %v", ErrShape, e.Stage, e.Got, e.Want)
}

// Unwrap makes errors.Is(err, ErrShape) hold for ShapeError.
func (e *ShapeError) Unwrap() error {
	return ErrShape
}
