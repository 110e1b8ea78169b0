package store

import (
	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/bjoernek/multi-chain-voting/sdk"
)

const defaultMemTableSize = 8 << 20

type options struct {
	dataDir string
	logger  sdk.Logger
}

// Option configures a Store.
type Option func(*options)

// WithDataDir persists the store in the given directory.
func WithDataDir(dir string) Option {
	return func(o *options) {
		o.dataDir = dir
	}
}

// WithLogger sets the logger badger reports to.
func WithLogger(lggr sdk.Logger) Option {
	return func(o *options) {
		if lggr != nil {
			o.logger = lggr
		}
	}
}

func defaultOptions() options {
	return options{logger: zap.NewNop().Sugar()}
}

func (o options) badgerOptions() badger.Options {
	opts := badger.DefaultOptions(o.dataDir).
		WithLogger(newBadgerLogger(o.logger)).
		// The default INFO logging is a bit verbose
		WithLoggingLevel(badger.WARNING)
	if o.dataDir == "" {
		opts = opts.WithInMemory(true).WithMemTableSize(defaultMemTableSize)
	}

	return opts
}
