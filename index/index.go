// Package index provides quantized floating-point index keys.
//
// Cards in an OPAT container are identified by real-valued vectors such as
// composition fractions. Raw float64 values are unusable as map keys because
// representation noise (0.65 vs 0.6500000000000001) breaks equality. A Key
// therefore carries a quantized integer rendering of the vector, rounded to a
// configured number of decimal digits, and all identity operations (equality,
// hashing, map keying) run over the quantized form.
package index

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const (
	// MinPrecision is the smallest accepted quantization precision.
	MinPrecision = 1
	// MaxPrecision is the largest accepted quantization precision. 10^14
	// exceeds the range where every integer is exactly representable in a
	// float64, so precisions stop at 13 digits.
	MaxPrecision = 13

	// DefaultPrecision matches the OPAT format default.
	DefaultPrecision = 8
)

// ErrEmptyVector is returned when a key is constructed from no components.
var ErrEmptyVector = fmt.Errorf("index: vector must have at least one component")

// ErrPrecision indicates a quantization precision outside [MinPrecision, MaxPrecision].
type ErrPrecision struct {
	Precision uint8
}

func (e *ErrPrecision) Error() string {
	return fmt.Sprintf("index: precision %d out of range [%d, %d]", e.Precision, MinPrecision, MaxPrecision)
}

// Key is a quantized, exactly-comparable rendering of a real-valued vector.
//
// Two keys are equal iff they have the same length, the same precision and
// identical quantized components. The original (unrounded) values are retained
// for serialization and for lattice coordinate math. A Key is immutable once
// constructed.
type Key struct {
	values    []float64
	quant     []int64
	precision uint8
}

// Make builds a Key from values quantized to precision decimal digits.
//
// Each component is rounded half away from zero at the given number of
// fractional digits: quant = round(v * 10^precision). Vectors differing only
// beyond that digit produce identical keys.
func Make(values []float64, precision uint8) (Key, error) {
	if len(values) == 0 {
		return Key{}, ErrEmptyVector
	}
	if precision < MinPrecision || precision > MaxPrecision {
		return Key{}, &ErrPrecision{Precision: precision}
	}

	scale := math.Pow10(int(precision))

	k := Key{
		values:    make([]float64, len(values)),
		quant:     make([]int64, len(values)),
		precision: precision,
	}
	copy(k.values, values)
	for i, v := range values {
		// math.Round is round half away from zero.
		k.quant[i] = int64(math.Round(v * scale))
	}
	return k, nil
}

// MustMake is Make but panics on error. Intended for constants in tests and
// for literals known valid at compile time.
func MustMake(values []float64, precision uint8) Key {
	k, err := Make(values, precision)
	if err != nil {
		panic(err)
	}
	return k
}

// Len returns the number of components.
func (k Key) Len() int { return len(k.values) }

// Precision returns the quantization precision in decimal digits.
func (k Key) Precision() uint8 { return k.precision }

// Values returns a copy of the original (unquantized) components.
func (k Key) Values() []float64 {
	out := make([]float64, len(k.values))
	copy(out, k.values)
	return out
}

// Value returns the original component at position i.
func (k Key) Value(i int) float64 { return k.values[i] }

// Quantized returns the quantized component at position i.
func (k Key) Quantized(i int) int64 { return k.quant[i] }

// Equal reports whether two keys are identical under quantized comparison.
func (k Key) Equal(other Key) bool {
	if len(k.quant) != len(other.quant) || k.precision != other.precision {
		return false
	}
	for i := range k.quant {
		if k.quant[i] != other.quant[i] {
			return false
		}
	}
	return true
}

// Compare orders keys componentwise lexicographically over the quantized
// values. It is used for building sorted per-axis structures, not for
// identity.
func (k Key) Compare(other Key) int {
	n := min(len(k.quant), len(other.quant))
	for i := 0; i < n; i++ {
		switch {
		case k.quant[i] < other.quant[i]:
			return -1
		case k.quant[i] > other.quant[i]:
			return 1
		}
	}
	switch {
	case len(k.quant) < len(other.quant):
		return -1
	case len(k.quant) > len(other.quant):
		return 1
	}
	return 0
}

// Hash returns the xxhash64 digest of the quantized components. Card maps
// bucket by this hash and resolve within a bucket via Equal, so a collision
// costs a probe, never a wrong card.
func (k Key) Hash() uint64 {
	buf := make([]byte, 8*len(k.quant))
	for i, q := range k.quant {
		binary.LittleEndian.PutUint64(buf[8*i:], uint64(q))
	}
	return xxhash.Sum64(buf)
}

// String renders the key for logs and text export, using the original values
// at the configured precision.
func (k Key) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range k.values {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.FormatFloat(v, 'g', int(k.precision)+1, 64))
	}
	sb.WriteByte(']')
	return sb.String()
}
