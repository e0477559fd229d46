package core

import (
	"io"
	"log/slog"
	"time"
)

// FilterEvent describes one filter stage run by Stream.Decode. Err is set
// when the stage failed, in which case OutputLen is zero.
type FilterEvent struct {
	Index     int
	Filter    Filter
	InputLen  int
	OutputLen int
	Duration  time.Duration
	Err       error
}

// DecodeHook observes filter stages as they run.
type DecodeHook func(FilterEvent)

// DecodeOption configures Stream.Decode and ParseObjectStream.
type DecodeOption func(*decodeConfig)

type decodeConfig struct {
	registry       *FilterRegistry
	logger         *slog.Logger
	hook           DecodeHook
	maxDecodedSize int
	strictHeader   bool
}

func newDecodeConfig(opts []DecodeOption) decodeConfig {
	cfg := decodeConfig{
		registry:     defaultRegistry,
		logger:       discardLogger,
		strictHeader: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// WithFilterRegistry decodes with codecs from r instead of the default
// registry.
func WithFilterRegistry(r *FilterRegistry) DecodeOption {
	return func(c *decodeConfig) {
		if r != nil {
			c.registry = r
		}
	}
}

// WithLogger emits a debug record per filter stage to logger.
func WithLogger(logger *slog.Logger) DecodeOption {
	return func(c *decodeConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDecodeHook calls hook after every filter stage.
func WithDecodeHook(hook DecodeHook) DecodeOption {
	return func(c *decodeConfig) {
		c.hook = hook
	}
}

// WithMaxDecodedSize fails a decode when any stage produces more than n
// bytes. Zero or a negative n means no limit.
func WithMaxDecodedSize(n int) DecodeOption {
	return func(c *decodeConfig) {
		c.maxDecodedSize = n
	}
}

// WithStrictHeader controls whether an object stream's offset table must
// lie entirely before /First (default true). When false the header is
// lexed from the whole decoded buffer.
func WithStrictHeader(strict bool) DecodeOption {
	return func(c *decodeConfig) {
		c.strictHeader = strict
	}
}
