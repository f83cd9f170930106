package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Logger = logrus.New()

var initOnce sync.Once

type CustomFormatter struct {
	SystemName string
}

func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	b.WriteString(fmt.Sprintf("Date: %s, Time: %s, ", entry.Time.Format("2006-01-02"), entry.Time.Format("15:04:05")))

	b.WriteString(fmt.Sprintf("Event Source: %s, ", f.SystemName))

	b.WriteString(fmt.Sprintf("Event Type: %s, ", strings.ToUpper(entry.Level.String())))

	b.WriteString(fmt.Sprintf("Event ID: %s, ", uuid.New().String()))

	b.WriteString(fmt.Sprintf("Message: %s", entry.Message))

	for _, key := range sortedKeys(entry.Data) {
		b.WriteString(fmt.Sprintf(", %s: %v", key, entry.Data[key]))
	}

	if entry.HasCaller() {
		b.WriteString(fmt.Sprintf(", Location: %s:%d in %s", entry.Caller.File, entry.Caller.Line, entry.Caller.Function))
	}

	b.WriteByte('\n')

	return b.Bytes(), nil
}

func sortedKeys(data logrus.Fields) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type Options struct {
	SystemName string
	// File is the rotated log file. Empty logs to stdout only.
	File  string
	Level string
}

// InitLogger configures Logger once per process. Later calls are no-ops.
func InitLogger(opts Options) error {
	var err error
	initOnce.Do(func() {
		err = configure(Logger, opts, os.Stdout)
	})
	return err
}

func configure(logger *logrus.Logger, opts Options, console io.Writer) error {
	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	output := console
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0700); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		logFile := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		output = io.MultiWriter(console, logFile)
	}

	logger.SetOutput(output)
	logger.SetFormatter(&CustomFormatter{SystemName: opts.SystemName})
	logger.SetLevel(level)
	logger.SetReportCaller(true)
	return nil
}
