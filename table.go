package opat

// TableSpec describes a table under construction. RowValues, ColumnValues
// and Data are required; Depth defaults to 1 (scalar cells); RowName and
// ColumnName are optional axis labels, at most 8 bytes each.
type TableSpec struct {
	RowValues    []float64
	ColumnValues []float64
	Data         []float64 // row-major, (r*cols + c)*depth + z
	Depth        int
	RowName      string
	ColumnName   string
}

// Table is a dense 2-D or 3-D float64 array with labeled row and column
// coordinate axes. Tables are immutable once built; transformations return
// new tables.
type Table struct {
	rowValues    []float64
	columnValues []float64
	data         []float64
	rows         int
	cols         int
	depth        int
	rowName      string
	columnName   string
}

// NewTable validates a TableSpec and builds an immutable Table. The data
// length must equal rows x cols x depth or construction fails with
// *ErrShapeMismatch. Axis labels longer than the format's 8-byte tag width
// fail with ErrTagTooLong.
func NewTable(spec TableSpec) (*Table, error) {
	depth := spec.Depth
	if depth == 0 {
		depth = 1
	}
	rows, cols := len(spec.RowValues), len(spec.ColumnValues)
	if depth < 1 || len(spec.Data) != rows*cols*depth {
		return nil, &ErrShapeMismatch{
			Rows:    rows,
			Cols:    cols,
			Depth:   depth,
			DataLen: len(spec.Data),
		}
	}
	if err := checkTag(spec.RowName); err != nil {
		return nil, err
	}
	if err := checkTag(spec.ColumnName); err != nil {
		return nil, err
	}

	t := &Table{
		rowValues:    make([]float64, rows),
		columnValues: make([]float64, cols),
		data:         make([]float64, len(spec.Data)),
		rows:         rows,
		cols:         cols,
		depth:        depth,
		rowName:      spec.RowName,
		columnName:   spec.ColumnName,
	}
	copy(t.rowValues, spec.RowValues)
	copy(t.columnValues, spec.ColumnValues)
	copy(t.data, spec.Data)
	return t, nil
}

// Rows returns the number of rows.
func (t *Table) Rows() int { return t.rows }

// Columns returns the number of columns.
func (t *Table) Columns() int { return t.cols }

// Depth returns the number of values per cell.
func (t *Table) Depth() int { return t.depth }

// RowName returns the optional row axis label.
func (t *Table) RowName() string { return t.rowName }

// ColumnName returns the optional column axis label.
func (t *Table) ColumnName() string { return t.columnName }

// RowValues returns a copy of the row coordinate axis.
func (t *Table) RowValues() []float64 {
	out := make([]float64, t.rows)
	copy(out, t.rowValues)
	return out
}

// ColumnValues returns a copy of the column coordinate axis.
func (t *Table) ColumnValues() []float64 {
	out := make([]float64, t.cols)
	copy(out, t.columnValues)
	return out
}

// At returns the first (depth-0) value of cell (r, c).
func (t *Table) At(r, c int) float64 {
	return t.data[(r*t.cols+c)*t.depth]
}

// AtDepth returns the value of cell (r, c) at depth z.
func (t *Table) AtDepth(r, c, z int) float64 {
	return t.data[(r*t.cols+c)*t.depth+z]
}

// Cell returns a copy of the depth vector stored in cell (r, c).
func (t *Table) Cell(r, c int) []float64 {
	start := (r*t.cols + c) * t.depth
	out := make([]float64, t.depth)
	copy(out, t.data[start:start+t.depth])
	return out
}

// Data returns a copy of the dense payload in row-major order.
func (t *Table) Data() []float64 {
	out := make([]float64, len(t.data))
	copy(out, t.data)
	return out
}

// Map returns a new Table whose payload is f applied elementwise. Axes and
// labels carry over unchanged; the receiver is not modified.
func (t *Table) Map(f func(float64) float64) *Table {
	out := &Table{
		rowValues:    t.rowValues,
		columnValues: t.columnValues,
		data:         make([]float64, len(t.data)),
		rows:         t.rows,
		cols:         t.cols,
		depth:        t.depth,
		rowName:      t.rowName,
		columnName:   t.columnName,
	}
	for i, v := range t.data {
		out.data[i] = f(v)
	}
	return out
}

// Slice extracts the sub-table covering rows [rowLo, rowHi) and columns
// [colLo, colHi). Depth is preserved.
func (t *Table) Slice(rowLo, rowHi, colLo, colHi int) (*Table, error) {
	if rowLo < 0 || colLo < 0 || rowHi > t.rows || colHi > t.cols || rowLo > rowHi || colLo > colHi {
		return nil, &ErrShapeMismatch{
			Rows:    rowHi - rowLo,
			Cols:    colHi - colLo,
			Depth:   t.depth,
			DataLen: len(t.data),
		}
	}
	rows, cols := rowHi-rowLo, colHi-colLo
	out := &Table{
		rowValues:    append([]float64(nil), t.rowValues[rowLo:rowHi]...),
		columnValues: append([]float64(nil), t.columnValues[colLo:colHi]...),
		data:         make([]float64, rows*cols*t.depth),
		rows:         rows,
		cols:         cols,
		depth:        t.depth,
		rowName:      t.rowName,
		columnName:   t.columnName,
	}
	for r := 0; r < rows; r++ {
		src := ((rowLo+r)*t.cols + colLo) * t.depth
		dst := r * cols * t.depth
		copy(out.data[dst:dst+cols*t.depth], t.data[src:src+cols*t.depth])
	}
	return out, nil
}

// Row extracts a single row as a 1 x cols table.
func (t *Table) Row(r int) (*Table, error) {
	return t.Slice(r, r+1, 0, t.cols)
}

// Column extracts a single column as a rows x 1 table.
func (t *Table) Column(c int) (*Table, error) {
	return t.Slice(0, t.rows, c, c+1)
}
