package gif

import (
	"io"
	"log/slog"

	"github.com/NathanBaulch/gifcodec/lzw"
)

// Options configure a Decoder or Encoder.
type Options struct {
	// EarlyChange widens LZW codes one dictionary slot early, as some non-conforming encoders
	// do. It applies to both decoding and encoding.
	EarlyChange bool
	// DeferredClear tolerates LZW streams that keep writing 12-bit codes once the dictionary
	// is full instead of sending a Clear code.
	DeferredClear bool
	// SkipExtensions discards extensions other than graphic control while decoding.
	SkipExtensions bool
	// AllowMissingColorTable accepts frames that have neither a local nor a global color
	// table. Their rasters are kept as raw indices.
	AllowMissingColorTable bool
	// Logger receives debug records for tolerated irregularities. Nil discards them.
	Logger *slog.Logger
}

type Option func(*Options)

// WithEarlyChange selects the early change LZW code width convention.
func WithEarlyChange() Option {
	return func(o *Options) {
		o.EarlyChange = true
	}
}

// WithDeferredClear accepts full LZW dictionaries without a Clear code.
func WithDeferredClear() Option {
	return func(o *Options) {
		o.DeferredClear = true
	}
}

// WithSkipExtensions drops comment, application, plain text and unknown extensions.
func WithSkipExtensions() Option {
	return func(o *Options) {
		o.SkipExtensions = true
	}
}

// WithoutColorTable accepts frames with no applicable color table.
func WithoutColorTable() Option {
	return func(o *Options) {
		o.AllowMissingColorTable = true
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newOptions(opts []Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = discardLogger
	}
	return o
}

func (o *Options) lzwOptions() *lzw.Options {
	lo := &lzw.Options{DeferredClear: o.DeferredClear}
	if o.EarlyChange {
		lo.Convention = lzw.EarlyChange
	}
	return lo
}
