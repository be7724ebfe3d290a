package hook

import (
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"

	hlog "github.com/sghaida/hooktrace/internal/log"
)

var (
	loggerOnce sync.Once
	logger     *zap.Logger
)

// Logger returns the stderr logger used for runtime diagnostics. Hook authors
// may share it.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		logger = buildLogger(hlog.New, os.Stderr)
	})
	return logger
}

// buildLogger falls back to a plain writer on w when build fails, so the
// fatal diagnostic is never dropped.
func buildLogger(build func(hlog.Options) (*zap.Logger, error), w io.Writer) *zap.Logger {
	l, err := build(hlog.Options{})
	if err == nil {
		return l
	}
	l = hlog.NewWriter(w, hlog.Options{})
	l.Warn("runtime logger unavailable, writing to stderr", zap.Error(err))
	return l
}

// terminate ends the process. Tests replace it.
var terminate = abortProcess

func fatal(symbol, library, handle string, err error) {
	l := Logger()
	l.Error(
		fmt.Sprintf("dlsym failed to find symbol '%s', aborting", symbol),
		zap.String("symbol", symbol),
		zap.String("handle", handle),
		zap.String("library", library),
		zap.Error(err),
	)
	_ = l.Sync()
	terminate()
}
