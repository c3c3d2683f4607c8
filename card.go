package opat

import (
	"fmt"

	"github.com/stellarlib/opat/index"
	"github.com/stellarlib/opat/persistence"
)

// Card is a record keyed by one quantized index vector, holding named
// tables in insertion order. Cards are created by their owning Container
// when a new index vector is first used; tables may be added afterwards.
//
// Tables under one card are independent: differing axes may coexist, and no
// cross-table validation happens here.
type Card struct {
	key     index.Key
	comment string
	tables  map[string]*Table
	order   []string
}

func newCard(key index.Key) *Card {
	return &Card{
		key:    key,
		tables: make(map[string]*Table),
	}
}

// Key returns the quantized index key identifying this card.
func (c *Card) Key() index.Key { return c.key }

// Comment returns the card's free-text comment.
func (c *Card) Comment() string { return c.comment }

// SetComment sets the card's free-text comment. Truncated to the fixed
// 128-byte card header field on save.
func (c *Card) SetComment(comment string) { c.comment = comment }

// Len returns the number of tables.
func (c *Card) Len() int { return len(c.tables) }

// AddTable stores a table under tag. An existing table under the same tag is
// silently overwritten; this is intended behavior, not an error, and the
// tag keeps its original position in the card's order. Tags longer than the
// format's 8-byte width fail with ErrTagTooLong.
func (c *Card) AddTable(tag string, t *Table) error {
	if err := checkTag(tag); err != nil {
		return err
	}
	if _, exists := c.tables[tag]; !exists {
		c.order = append(c.order, tag)
	}
	c.tables[tag] = t
	return nil
}

// Table returns the table stored under tag, or ErrTableNotFound.
func (c *Card) Table(tag string) (*Table, error) {
	t, ok := c.tables[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %q in card %s", ErrTableNotFound, tag, c.key)
	}
	return t, nil
}

// Tags returns the table tags in insertion order.
func (c *Card) Tags() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

func checkTag(tag string) error {
	if len(tag) > persistence.TagWidth {
		return fmt.Errorf("%w: %q", ErrTagTooLong, tag)
	}
	return nil
}
