package store

import (
	"strings"

	"github.com/bjoernek/multi-chain-voting/sdk"
)

// badgerLogger adapts sdk.Logger to badger.Logger.
type badgerLogger struct {
	lggr sdk.Logger
}

func newBadgerLogger(lggr sdk.Logger) badgerLogger {
	return badgerLogger{lggr: lggr}
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.lggr.Errorf(trim(format), args...)
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.lggr.Warnf(trim(format), args...)
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.lggr.Infof(trim(format), args...)
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.lggr.Debugf(trim(format), args...)
}

// badger terminates its format strings with a newline.
func trim(format string) string {
	return strings.TrimSuffix(format, "\n")
}
