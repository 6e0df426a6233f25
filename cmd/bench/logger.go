package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ssgreg/logf"
	"github.com/ssgreg/logftext"
)

const (
	logFormatText = "text"
	logFormatJSON = "json"
)

type logConfig struct {
	Format  string `yaml:"format"`
	Level   string `yaml:"level"`
	NoColor bool   `yaml:"no_color"`
}

func parseLevel(s string) (logf.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return logf.LevelDebug, nil
	case "info", "":
		return logf.LevelInfo, nil
	case "warn", "warning":
		return logf.LevelWarn, nil
	case "error":
		return logf.LevelError, nil
	}
	return logf.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// newLogger builds an asynchronous logf logger writing to w.
// The returned close func flushes pending entries and must be called on exit.
func newLogger(cfg logConfig, w io.Writer) (*logf.Logger, logf.ChannelWriterCloseFunc, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	channel, closeFunc := logf.NewChannelWriter(logf.ChannelWriterConfig{
		Appender:          makeAppender(cfg, w),
		EnableSyncOnError: true,
	})
	logger := logf.NewLogger(level, channel).With(logf.Int("pid", os.Getpid()))
	return logger, closeFunc, nil
}

func makeAppender(cfg logConfig, w io.Writer) logf.Appender {
	if cfg.Format == logFormatText {
		noColor := cfg.NoColor
		return logftext.NewAppender(w, logftext.EncoderConfig{
			NoColor:    &noColor,
			EncodeTime: logf.RFC3339NanoTimeEncoder,
		})
	}
	return logf.NewWriteAppender(w, logf.NewJSONEncoder(logf.JSONEncoderConfig{
		EncodeTime:   logf.RFC3339NanoTimeEncoder,
		FieldKeyTime: "time",
	}))
}
