package log

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/tobiaslotz/qunfold/pkg/errors"
)

// EnableZerologWarnings routes the library's warning system (for example
// ConvergenceWarning) to a zerolog logger writing to w. Warning types that
// implement zerolog.LogObjectMarshaler are emitted as structured objects.
// Pass nil to write to stderr.
func EnableZerologWarnings(w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	logger := zerolog.New(w).With().Timestamp().Logger()
	errors.SetZerologWarnFunc(func(warning error) {
		event := logger.Warn()
		if obj, ok := warning.(zerolog.LogObjectMarshaler); ok {
			event.Object("warning", obj)
		}
		event.Msg(warning.Error())
	})
	return logger
}
