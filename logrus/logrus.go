package logrus

import (
	"fmt"
	"io"
	"os"

	"github.com/lukasz-zimnoch/forex"
	"github.com/sirupsen/logrus"
)

type wrapper struct {
	*logrus.Entry
}

func (w *wrapper) WithField(key string, value interface{}) forex.Logger {
	return &wrapper{w.Entry.WithField(key, value)}
}

func (w *wrapper) WithFields(fields map[string]interface{}) forex.Logger {
	return &wrapper{w.Entry.WithFields(fields)}
}

// NewLogger builds a dedicated logger writing to output. Format "json"
// selects the JSON formatter, anything else the text one.
func NewLogger(format, level string, output io.Writer) (forex.Logger, error) {
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("could not parse log level: [%w]", err)
	}

	logger := logrus.New()
	logger.SetFormatter(formatter(format))
	logger.SetLevel(logLevel)
	logger.SetOutput(output)

	return &wrapper{logrus.NewEntry(logger)}, nil
}

// ConfigureStandardLogger configures the logrus standard logger to write to
// stderr, keeping stdout for command output.
func ConfigureStandardLogger(format, level string) forex.Logger {
	logrus.SetFormatter(formatter(format))

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.Fatalf("could not parse log level: [%v]", err)
	}

	logrus.SetLevel(logLevel)

	logrus.SetOutput(os.Stderr)

	return &wrapper{
		logrus.StandardLogger().WithFields(map[string]interface{}{}),
	}
}

func formatter(format string) logrus.Formatter {
	fieldMap := logrus.FieldMap{
		logrus.FieldKeyLevel: "severity",
		logrus.FieldKeyMsg:   "message",
	}

	if format == "json" {
		return &logrus.JSONFormatter{
			FieldMap: fieldMap,
		}
	}

	return &logrus.TextFormatter{
		FullTimestamp: true,
		FieldMap:      fieldMap,
	}
}
