package opat_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellarlib/opat"
)

func newTestTable(t *testing.T) *opat.Table {
	t.Helper()
	table, err := opat.NewTable(opat.TableSpec{
		RowValues:    []float64{1, 2, 3},
		ColumnValues: []float64{10, 20},
		Data: []float64{
			1.1, 1.2,
			2.1, 2.2,
			3.1, 3.2,
		},
		RowName:    "logT",
		ColumnName: "logR",
	})
	require.NoError(t, err)
	return table
}

func TestNewTable(t *testing.T) {
	table := newTestTable(t)

	assert.Equal(t, 3, table.Rows())
	assert.Equal(t, 2, table.Columns())
	assert.Equal(t, 1, table.Depth())
	assert.Equal(t, "logT", table.RowName())
	assert.Equal(t, "logR", table.ColumnName())
	assert.Equal(t, []float64{1, 2, 3}, table.RowValues())
	assert.Equal(t, []float64{10, 20}, table.ColumnValues())
	assert.Equal(t, 2.2, table.At(1, 1))
	assert.Equal(t, 3.1, table.At(2, 0))
}

func TestNewTableShapeMismatch(t *testing.T) {
	_, err := opat.NewTable(opat.TableSpec{
		RowValues:    []float64{1, 2, 3},
		ColumnValues: []float64{10, 20},
		Data:         []float64{1, 2, 3, 4, 5}, // needs 6
	})

	var shape *opat.ErrShapeMismatch
	require.ErrorAs(t, err, &shape)
	assert.Equal(t, 3, shape.Rows)
	assert.Equal(t, 2, shape.Cols)
	assert.Equal(t, 1, shape.Depth)
	assert.Equal(t, 5, shape.DataLen)
}

func TestNewTableDepth(t *testing.T) {
	table, err := opat.NewTable(opat.TableSpec{
		RowValues:    []float64{1, 2},
		ColumnValues: []float64{10},
		Data:         []float64{1, 2, 3, 4, 5, 6},
		Depth:        3,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, table.Depth())
	assert.Equal(t, []float64{4, 5, 6}, table.Cell(1, 0))
	assert.Equal(t, 6.0, table.AtDepth(1, 0, 2))
	assert.Equal(t, 1.0, table.At(0, 0))
}

func TestNewTableLabelTooLong(t *testing.T) {
	_, err := opat.NewTable(opat.TableSpec{
		RowValues:    []float64{1},
		ColumnValues: []float64{1},
		Data:         []float64{1},
		RowName:      "temperature", // over the 8 byte tag width
	})
	assert.ErrorIs(t, err, opat.ErrTagTooLong)
}

func TestTableSpecCopied(t *testing.T) {
	rows := []float64{1, 2}
	data := []float64{1, 2, 3, 4}
	table, err := opat.NewTable(opat.TableSpec{
		RowValues:    rows,
		ColumnValues: []float64{10, 20},
		Data:         data,
	})
	require.NoError(t, err)

	rows[0] = 99
	data[0] = 99
	assert.Equal(t, []float64{1, 2}, table.RowValues())
	assert.Equal(t, 1.0, table.At(0, 0))
}

func TestTableMap(t *testing.T) {
	table := newTestTable(t)
	doubled := table.Map(func(v float64) float64 { return v * 2 })

	assert.Equal(t, 4.4, doubled.At(1, 1))
	assert.Equal(t, 2.2, table.At(1, 1), "receiver must not change")
	assert.Equal(t, table.RowValues(), doubled.RowValues())
	assert.Equal(t, "logT", doubled.RowName())
}

func TestTableMapLog10(t *testing.T) {
	table, err := opat.NewTable(opat.TableSpec{
		RowValues:    []float64{1},
		ColumnValues: []float64{1},
		Data:         []float64{1000},
	})
	require.NoError(t, err)

	assert.InDelta(t, 3.0, table.Map(math.Log10).At(0, 0), 1e-12)
}

func TestTableSlice(t *testing.T) {
	table := newTestTable(t)

	sub, err := table.Slice(1, 3, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, sub.Rows())
	assert.Equal(t, 1, sub.Columns())
	assert.Equal(t, []float64{2, 3}, sub.RowValues())
	assert.Equal(t, []float64{10}, sub.ColumnValues())
	assert.Equal(t, 2.1, sub.At(0, 0))
	assert.Equal(t, 3.1, sub.At(1, 0))

	_, err = table.Slice(0, 4, 0, 1)
	var shape *opat.ErrShapeMismatch
	assert.ErrorAs(t, err, &shape)
}

func TestTableRowColumn(t *testing.T) {
	table := newTestTable(t)

	row, err := table.Row(1)
	require.NoError(t, err)
	assert.Equal(t, 1, row.Rows())
	assert.Equal(t, []float64{2.1, 2.2}, row.Data())

	col, err := table.Column(1)
	require.NoError(t, err)
	assert.Equal(t, 1, col.Columns())
	assert.Equal(t, []float64{1.2, 2.2, 3.2}, col.Data())
}
