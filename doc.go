// Package opat reads and writes OPAT containers: compact binary files of
// multi-dimensional scientific lookup tables, such as stellar opacity tables
// indexed by composition fractions.
//
// A Container holds header metadata and a set of Cards. Each Card is keyed by
// a quantized real-valued vector (see the index subpackage) and holds named
// Tables: dense 2-D or 3-D float64 arrays with labeled row and column axes.
//
// # Building and saving
//
//	c, _ := opat.New(2, opat.WithSource("mkTables v3"), opat.WithComment("solar mix"))
//	table, _ := opat.NewTable(opat.TableSpec{
//	    RowValues:    logR,
//	    ColumnValues: logT,
//	    Data:         logKappa,
//	})
//	_ = c.AddTable([]float64{0.7, 0.02}, "data", table)
//	_ = c.SaveFile("gs98hz.opat")
//
// # Loading and querying
//
//	c, _ := opat.LoadFile("gs98hz.opat")
//	card, _ := c.Card([]float64{0.7, 0.02})
//	table, _ := card.Table("data")
//
// Queries that do not hit a stored key exactly go through the lattice
// subpackage, which answers nearest-key and bracketing queries over the
// container's index space.
//
// Containers on object storage can be opened without downloading them whole:
// OpenReader decodes the header and card catalog once and fetches single
// cards on demand through a blobstore.BlobStore.
package opat
