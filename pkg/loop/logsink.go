package loop

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogSink collects log lines for a UI that cannot have logs written over it.
// Lines are dropped when the reader falls behind.
type LogSink struct {
	ch chan string
}

// NewLogSink creates a sink buffering up to size lines.
func NewLogSink(size int) *LogSink {
	if size <= 0 {
		size = 10
	}
	return &LogSink{ch: make(chan string, size)}
}

// Lines returns a channel that receives log lines.
func (s *LogSink) Lines() <-chan string {
	return s.ch
}

// Write implements io.Writer for zapcore.
func (s *LogSink) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		select {
		case s.ch <- line:
		default:
			// Drop if channel full
		}
	}
	return len(p), nil
}

// Sync implements zapcore.WriteSyncer.
func (s *LogSink) Sync() error {
	return nil
}

// Logger returns a console logger writing to the sink.
func (s *LogSink) Logger(level zapcore.Level) *zap.SugaredLogger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = "T"
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), s, level)
	return zap.New(core).Sugar()
}
