package opat

import (
	"errors"
	"fmt"

	"github.com/stellarlib/opat/persistence"
)

var (
	// ErrCardNotFound is returned when no card exists at a given index key.
	ErrCardNotFound = errors.New("card not found")

	// ErrTableNotFound is returned when a card holds no table under a tag.
	ErrTableNotFound = errors.New("table not found")

	// ErrTagTooLong is returned when a table tag or axis label exceeds the
	// fixed 8-byte width of the binary format.
	ErrTagTooLong = fmt.Errorf("tag exceeds %d bytes", persistence.TagWidth)
)

// ErrInvalidDimension indicates an index vector whose length does not match
// the container's dimensionality.
type ErrInvalidDimension struct {
	Expected int
	Actual   int
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid index dimension: expected %d, got %d", e.Expected, e.Actual)
}

// ErrShapeMismatch indicates table data whose length disagrees with the
// declared axes.
type ErrShapeMismatch struct {
	Rows    int
	Cols    int
	Depth   int
	DataLen int
}

func (e *ErrShapeMismatch) Error() string {
	return fmt.Sprintf("table shape mismatch: %d rows x %d cols x %d depth requires %d values, got %d",
		e.Rows, e.Cols, e.Depth, e.Rows*e.Cols*e.Depth, e.DataLen)
}
