package opat

import (
	"time"

	"github.com/stellarlib/opat/index"
	"github.com/stellarlib/opat/persistence"
)

type options struct {
	precision   uint8
	source      string
	comment     string
	created     time.Time
	compression persistence.Compression
	logger      *Logger
	parallelism int
}

func defaultOptions() options {
	return options{
		precision:   index.DefaultPrecision,
		created:     time.Now(),
		compression: persistence.CompressionNone,
		logger:      NoopLogger(),
	}
}

// Option configures container construction and loading.
//
// Construction options (WithHashPrecision, WithSource, WithComment,
// WithCreationDate, WithCompression) are ignored by Load, which takes those
// fields from the stream.
type Option func(*options)

// WithHashPrecision sets the number of decimal digits retained when index
// vectors are quantized into keys. Fixed at header-write time; all key
// comparisons for the container's lifetime use it.
func WithHashPrecision(digits uint8) Option {
	return func(o *options) { o.precision = digits }
}

// WithSource sets the provenance string recorded in the header. Truncated to
// the fixed 64-byte header field on save.
func WithSource(source string) Option {
	return func(o *options) { o.source = source }
}

// WithComment sets the free-text comment recorded in the header. Truncated
// to the fixed 128-byte header field on save.
func WithComment(comment string) Option {
	return func(o *options) { o.comment = comment }
}

// WithCreationDate overrides the creation timestamp recorded in the header.
// Useful for reproducible byte-identical output.
func WithCreationDate(t time.Time) Option {
	return func(o *options) { o.created = t }
}

// WithCompression selects the codec applied to card blocks on save.
// The default is no compression, matching legacy OPAT files.
func WithCompression(c persistence.Compression) Option {
	return func(o *options) { o.compression = c }
}

// WithLogger sets the structured logger used by save/load operations.
// If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithParallelism bounds the number of goroutines used to decode cards on
// eager load. Values below 1 select a per-CPU default. Only Load uses this.
func WithParallelism(n int) Option {
	return func(o *options) { o.parallelism = n }
}
