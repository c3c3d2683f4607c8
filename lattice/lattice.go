package lattice

import (
	"fmt"
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stellarlib/opat"
)

// ErrOutOfRange is returned when a query vector leaves the stored coordinate
// span on some axis. No extrapolation policy is configured; callers clamp or
// reject upstream.
type ErrOutOfRange struct {
	Axis  int
	Value float64
	Min   float64
	Max   float64
}

func (e *ErrOutOfRange) Error() string {
	return fmt.Sprintf("lattice: axis %d value %g outside stored span [%g, %g]",
		e.Axis, e.Value, e.Min, e.Max)
}

// AxisBracket is the pair of stored coordinates straddling a query value on
// one axis. Lower == Upper when the query hits a stored coordinate exactly.
type AxisBracket struct {
	Lower float64
	Upper float64
}

// axis holds one dimension of the lattice: the sorted unique coordinate
// values cards occupy on that dimension, and per coordinate a bitmap of the
// ordinals of the cards carrying it.
type axis struct {
	values []float64
	cards  []*roaring.Bitmap
}

// Lattice is a read-only spatial index over a container's card keys. It
// snapshots the card set at build time; after the container gains or loses
// cards the lattice is stale and must be rebuilt with New.
type Lattice struct {
	cards  []*opat.Card
	axes   []axis
	logger *opat.Logger
}

// Option configures a Lattice.
type Option func(*Lattice)

// WithLogger sets the logger used during build and queries.
func WithLogger(logger *opat.Logger) Option {
	return func(l *Lattice) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New builds a lattice over the container's current cards. Per axis it
// collects the sorted unique quantized coordinates and, for each coordinate,
// a bitmap of the cards occupying it; an exact-key lookup is then a bitmap
// intersection across all axes.
func New(c *opat.Container, opts ...Option) (*Lattice, error) {
	l := &Lattice{
		axes:   make([]axis, c.NumIndex()),
		logger: opat.NoopLogger(),
	}
	for _, fn := range opts {
		fn(l)
	}

	scale := math.Pow(10, float64(c.HashPrecision()))
	coords := make([]map[int64]*roaring.Bitmap, c.NumIndex())
	for d := range coords {
		coords[d] = make(map[int64]*roaring.Bitmap)
	}

	for ord, key := range c.Keys() {
		card, err := c.CardByKey(key)
		if err != nil {
			return nil, err
		}
		l.cards = append(l.cards, card)
		for d := 0; d < key.Len(); d++ {
			q := key.Quantized(d)
			bm, ok := coords[d][q]
			if !ok {
				bm = roaring.New()
				coords[d][q] = bm
			}
			bm.Add(uint32(ord))
		}
	}

	for d, byCoord := range coords {
		qs := make([]int64, 0, len(byCoord))
		for q := range byCoord {
			qs = append(qs, q)
		}
		sort.Slice(qs, func(i, j int) bool { return qs[i] < qs[j] })

		ax := axis{
			values: make([]float64, len(qs)),
			cards:  make([]*roaring.Bitmap, len(qs)),
		}
		for i, q := range qs {
			ax.values[i] = float64(q) / scale
			ax.cards[i] = byCoord[q]
		}
		l.axes[d] = ax
	}

	l.logger.WithCards(len(l.cards)).Debug("lattice built")
	return l, nil
}

// Len returns the number of cards indexed.
func (l *Lattice) Len() int { return len(l.cards) }

// AxisValues returns the sorted unique stored coordinates on one axis.
func (l *Lattice) AxisValues(d int) []float64 {
	out := make([]float64, len(l.axes[d].values))
	copy(out, l.axes[d].values)
	return out
}

// Get resolves a query vector to the card at the nearest stored coordinate
// on each axis independently, ties toward the lower coordinate. The combined
// per-axis choice must name an existing card; on card sets that do not form
// a full grid the nearest-per-axis combination may be absent, in which case
// Get returns ErrCardNotFound.
func (l *Lattice) Get(query []float64) (*opat.Card, error) {
	if err := l.checkQuery(query); err != nil {
		return nil, err
	}

	var hits *roaring.Bitmap
	for d, q := range query {
		i := l.axes[d].nearest(q)
		hits = intersect(hits, l.axes[d].cards[i])
		if hits.IsEmpty() {
			return nil, fmt.Errorf("%w: no card at nearest grid point for query %v",
				opat.ErrCardNotFound, query)
		}
	}
	return l.cards[hits.Minimum()], nil
}

// Bracket returns, per axis, the stored coordinate pair straddling the query
// value. When the query hits a stored coordinate exactly, Lower and Upper are
// equal.
func (l *Lattice) Bracket(query []float64) ([]AxisBracket, error) {
	if err := l.checkQuery(query); err != nil {
		return nil, err
	}

	out := make([]AxisBracket, len(query))
	for d, q := range query {
		lo, hi := l.axes[d].bracket(q)
		out[d] = AxisBracket{Lower: lo, Upper: hi}
	}
	return out, nil
}

// Neighborhood returns the corner cards of the cell bracketing the query, up
// to 2^n cards for n axes, fewer where the query hits stored coordinates
// exactly. The result order enumerates corners with the last axis varying
// fastest. Callers interpolate between the corners themselves.
func (l *Lattice) Neighborhood(query []float64) ([]*opat.Card, error) {
	brackets, err := l.Bracket(query)
	if err != nil {
		return nil, err
	}

	corners := make([][]float64, len(brackets))
	for d, b := range brackets {
		if b.Lower == b.Upper {
			corners[d] = []float64{b.Lower}
		} else {
			corners[d] = []float64{b.Lower, b.Upper}
		}
	}

	var (
		cards  []*opat.Card
		corner = make([]float64, len(corners))
		walk   func(d int) error
	)
	walk = func(d int) error {
		if d == len(corners) {
			card, err := l.Get(corner)
			if err != nil {
				return err
			}
			cards = append(cards, card)
			return nil
		}
		for _, v := range corners[d] {
			corner[d] = v
			if err := walk(d + 1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(0); err != nil {
		return nil, err
	}
	return cards, nil
}

func (l *Lattice) checkQuery(query []float64) error {
	if len(query) != len(l.axes) {
		return &opat.ErrInvalidDimension{Expected: len(l.axes), Actual: len(query)}
	}
	if len(l.cards) == 0 {
		return fmt.Errorf("%w: lattice is empty", opat.ErrCardNotFound)
	}
	for d, q := range query {
		values := l.axes[d].values
		min, max := values[0], values[len(values)-1]
		if q < min || q > max {
			return &ErrOutOfRange{Axis: d, Value: q, Min: min, Max: max}
		}
	}
	return nil
}

// nearest returns the ordinal of the stored coordinate closest to q by
// absolute difference, ties toward the lower coordinate. The query is known
// to lie within the stored span.
func (ax *axis) nearest(q float64) int {
	i := sort.SearchFloat64s(ax.values, q)
	if i == len(ax.values) {
		return i - 1
	}
	if i == 0 || ax.values[i] == q {
		return i
	}
	if q-ax.values[i-1] <= ax.values[i]-q {
		return i - 1
	}
	return i
}

// bracket returns the stored coordinates straddling q, equal on an exact hit.
func (ax *axis) bracket(q float64) (lo, hi float64) {
	i := sort.SearchFloat64s(ax.values, q)
	if i < len(ax.values) && ax.values[i] == q {
		return q, q
	}
	return ax.values[i-1], ax.values[i]
}

func intersect(acc, bm *roaring.Bitmap) *roaring.Bitmap {
	if acc == nil {
		return bm.Clone()
	}
	acc.And(bm)
	return acc
}
