package opat

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// SaveText writes a plain-text rendition of the container to w. The output
// is value-exact: every float64 is formatted with the shortest decimal string
// that parses back to the identical bit pattern, so a text dump can stand in
// for the binary form in diffs and golden files.
func (c *Container) SaveText(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "version: %d\n", c.version)
	fmt.Fprintf(bw, "source: %s\n", c.source)
	fmt.Fprintf(bw, "comment: %s\n", c.comment)
	fmt.Fprintf(bw, "created: %s\n", c.created)
	fmt.Fprintf(bw, "numIndex: %d\n", c.numIndex)
	fmt.Fprintf(bw, "hashPrecision: %d\n", c.precision)
	fmt.Fprintf(bw, "cards: %d\n", len(c.order))

	for _, card := range c.order {
		bw.WriteByte('\n')
		bw.WriteString("card:")
		for _, v := range card.Key().Values() {
			bw.WriteByte(' ')
			bw.WriteString(ftoa(v))
		}
		bw.WriteByte('\n')
		if comment := card.Comment(); comment != "" {
			fmt.Fprintf(bw, "cardComment: %s\n", comment)
		}

		for _, tag := range card.Tags() {
			table, err := card.Table(tag)
			if err != nil {
				return err
			}
			if err := writeTableText(bw, tag, table); err != nil {
				return err
			}
		}
	}

	return bw.Flush()
}

func writeTableText(bw *bufio.Writer, tag string, t *Table) error {
	fmt.Fprintf(bw, "table: %s\n", tag)
	fmt.Fprintf(bw, "shape: %d %d %d\n", t.Rows(), t.Columns(), t.Depth())

	writeAxisText(bw, t.RowName(), t.RowValues())
	writeAxisText(bw, t.ColumnName(), t.ColumnValues())

	for d := 0; d < t.Depth(); d++ {
		if t.Depth() > 1 {
			fmt.Fprintf(bw, "slice: %d\n", d)
		}
		for i := 0; i < t.Rows(); i++ {
			for j := 0; j < t.Columns(); j++ {
				if j > 0 {
					bw.WriteByte(' ')
				}
				bw.WriteString(ftoa(t.AtDepth(i, j, d)))
			}
			bw.WriteByte('\n')
		}
	}
	return nil
}

func writeAxisText(bw *bufio.Writer, name string, values []float64) {
	if name == "" {
		name = "axis"
	}
	bw.WriteString(name)
	bw.WriteByte(':')
	for _, v := range values {
		bw.WriteByte(' ')
		bw.WriteString(ftoa(v))
	}
	bw.WriteByte('\n')
}

// ftoa renders v with the minimal number of digits that round-trips through
// strconv.ParseFloat.
func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
