package gpu

import (
	"io"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

var logger atomic.Pointer[logrus.Entry]

func init() {
	logger.Store(nopLogger())
}

func nopLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

// SetLogger replaces the logger used by this package. Passing nil restores
// the default, which discards everything.
func SetLogger(entry *logrus.Entry) {
	if entry == nil {
		entry = nopLogger()
	}
	logger.Store(entry)
}

// Logger returns the logger used by this package.
func Logger() *logrus.Entry {
	return logger.Load()
}
