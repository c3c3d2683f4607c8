package opat

import (
	"fmt"
	"math"

	"github.com/stellarlib/opat/index"
	"github.com/stellarlib/opat/persistence"
)

// Bounds holds the minimum and maximum stored coordinate of one index axis.
type Bounds struct {
	Min float64
	Max float64
}

// Container is the top-level OPAT object: header metadata plus a set of
// cards keyed by quantized index vectors. Containers are built in memory by
// incremental card/table insertion and then serialized, or reconstructed
// whole from a stream.
//
// Mutation is exclusive: derived structures such as a lattice snapshot the
// card set at build time and must be rebuilt after further insertion.
type Container struct {
	version     uint16
	source      string
	comment     string
	created     string // "YYYY-MM-DD HH:MM"
	numIndex    int
	precision   uint8
	compression persistence.Compression
	logger      *Logger

	cards map[uint64][]*Card // xxhash64 key buckets, probed with Key.Equal
	order []*Card            // insertion order
}

// New creates an empty container for index vectors of numIndex dimensions.
func New(numIndex int, opts ...Option) (*Container, error) {
	if numIndex < 1 {
		return nil, &ErrInvalidDimension{Expected: 1, Actual: numIndex}
	}

	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if o.precision < index.MinPrecision || o.precision > index.MaxPrecision {
		return nil, &index.ErrPrecision{Precision: o.precision}
	}

	return &Container{
		version:     persistence.Version,
		source:      o.source,
		comment:     o.comment,
		created:     o.created.Format("2006-01-02 15:04"),
		numIndex:    numIndex,
		precision:   o.precision,
		compression: o.compression,
		logger:      o.logger,
		cards:       make(map[uint64][]*Card),
	}, nil
}

// Version returns the container format revision.
func (c *Container) Version() uint16 { return c.version }

// Source returns the provenance string.
func (c *Container) Source() string { return c.source }

// Comment returns the free-text comment.
func (c *Container) Comment() string { return c.comment }

// CreationDate returns the creation timestamp recorded in the header.
func (c *Container) CreationDate() string { return c.created }

// NumIndex returns the dimensionality of index vectors.
func (c *Container) NumIndex() int { return c.numIndex }

// HashPrecision returns the key quantization precision in decimal digits.
func (c *Container) HashPrecision() uint8 { return c.precision }

// Compression returns the card block codec applied on save.
func (c *Container) Compression() persistence.Compression { return c.compression }

// Len returns the number of cards.
func (c *Container) Len() int { return len(c.order) }

// lookup probes the key's hash bucket for an exact quantized match.
func (c *Container) lookup(key index.Key) *Card {
	for _, card := range c.cards[key.Hash()] {
		if card.key.Equal(key) {
			return card
		}
	}
	return nil
}

func (c *Container) insert(card *Card) {
	h := card.key.Hash()
	c.cards[h] = append(c.cards[h], card)
	c.order = append(c.order, card)
}

// MakeKey quantizes an index vector under the container's precision,
// checking dimensionality.
func (c *Container) MakeKey(vector []float64) (index.Key, error) {
	if len(vector) != c.numIndex {
		return index.Key{}, &ErrInvalidDimension{Expected: c.numIndex, Actual: len(vector)}
	}
	return index.Make(vector, c.precision)
}

// AddTable stores a table under tag in the card identified by vector,
// creating the card on first use of the key. An existing table under the
// same tag in that card is silently overwritten.
func (c *Container) AddTable(vector []float64, tag string, t *Table) error {
	key, err := c.MakeKey(vector)
	if err != nil {
		return err
	}
	card := c.lookup(key)
	if card == nil {
		card = newCard(key)
		c.insert(card)
	}
	return card.AddTable(tag, t)
}

// Card returns the card whose quantized key matches vector, or
// ErrCardNotFound.
func (c *Container) Card(vector []float64) (*Card, error) {
	key, err := c.MakeKey(vector)
	if err != nil {
		return nil, err
	}
	return c.CardByKey(key)
}

// CardByKey returns the card stored under key, or ErrCardNotFound.
func (c *Container) CardByKey(key index.Key) (*Card, error) {
	card := c.lookup(key)
	if card == nil {
		return nil, fmt.Errorf("%w: %s", ErrCardNotFound, key)
	}
	return card, nil
}

// Keys returns the card keys in insertion order.
func (c *Container) Keys() []index.Key {
	out := make([]index.Key, len(c.order))
	for i, card := range c.order {
		out[i] = card.key
	}
	return out
}

// Bounds returns the per-axis min and max of all stored card keys, using the
// original (unquantized) coordinate values. The result has NumIndex entries.
func (c *Container) Bounds() []Bounds {
	bounds := make([]Bounds, c.numIndex)
	for i := range bounds {
		bounds[i] = Bounds{Min: math.Inf(1), Max: math.Inf(-1)}
	}
	for _, card := range c.order {
		key := card.key
		for i := 0; i < c.numIndex; i++ {
			v := key.Value(i)
			if v < bounds[i].Min {
				bounds[i].Min = v
			}
			if v > bounds[i].Max {
				bounds[i].Max = v
			}
		}
	}
	return bounds
}
