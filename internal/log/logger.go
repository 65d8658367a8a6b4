// Package log provides leveled logging for paws commands.
//
// Logger wraps a zap.SugaredLogger. In verbose mode every entry carries the
// run_id of the invocation so output from separate runs (for example a pack
// --watch loop) can be told apart.
package log

import (
	"io"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides printf-style logging with run context.
// A nil *Logger is valid and discards everything.
type Logger struct {
	sugar *zap.SugaredLogger
}

// Options configures a Logger.
type Options struct {
	// Verbose enables debug-level output.
	Verbose bool
	// Output defaults to os.Stderr.
	Output io.Writer
	// RunID defaults to a fresh UUID.
	RunID string
}

// New creates a console logger writing to opts.Output.
func New(opts Options) *Logger {
	w := opts.Output
	if w == nil {
		w = os.Stderr
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.New().String()
	}

	level := zapcore.InfoLevel
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	encoderConfig := zapcore.EncoderConfig{
		LevelKey:         "level",
		MessageKey:       "message",
		EncodeLevel:      zapcore.LowercaseLevelEncoder,
		ConsoleSeparator: " ",
	}
	if opts.Verbose {
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(w),
		level,
	)
	z := zap.New(core)
	if opts.Verbose {
		z = z.With(zap.String("run_id", runID))
	}
	return &Logger{sugar: z.Sugar()}
}

func (l *Logger) s() *zap.SugaredLogger {
	if l == nil || l.sugar == nil {
		return zap.NewNop().Sugar()
	}
	return l.sugar
}

// Debugf logs a debug message with printf-style formatting.
func (l *Logger) Debugf(template string, args ...any) { l.s().Debugf(template, args...) }

// Infof logs an info message with printf-style formatting.
func (l *Logger) Infof(template string, args ...any) { l.s().Infof(template, args...) }

// Warnf logs a warning message with printf-style formatting.
func (l *Logger) Warnf(template string, args ...any) { l.s().Warnf(template, args...) }

// Errorf logs an error message with printf-style formatting.
func (l *Logger) Errorf(template string, args ...any) { l.s().Errorf(template, args...) }

// Sync flushes buffered entries.
func (l *Logger) Sync() {
	_ = l.s().Sync()
}
