package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type Config struct {
	Enabled    bool   // logging on/off
	Level      string // DEBUG, INFO, WARN, ERROR
	LogsDir    string // optional directory for log files
	SavingDays uint   // how many days of log files to keep
}

// Logger is a thin prefixing wrapper around logrus shared by all
// components. WithPrefix derives component loggers from one backend.
type Logger struct {
	config *Config
	log    *logrus.Logger
	file   *os.File
	prefix string
}

func NewLogger(cfg *Config, prefix string) *Logger {
	backend := logrus.New()
	backend.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	l := &Logger{
		config: cfg,
		log:    backend,
		prefix: prefix,
	}

	if !cfg.Enabled {
		backend.SetOutput(io.Discard)
		return l
	}

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	backend.SetLevel(level)

	var output io.Writer = os.Stdout
	if cfg.LogsDir != "" {
		if err := os.MkdirAll(cfg.LogsDir, 0755); err == nil {
			logFile := filepath.Join(cfg.LogsDir, time.Now().Format("2006-01-02")+".log")
			if file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
				l.file = file
				output = io.MultiWriter(os.Stdout, file)
			}
		}
	}
	backend.SetOutput(output)

	if cfg.SavingDays > 0 && cfg.LogsDir != "" {
		go l.cleanOldLogs()
	}

	return l
}

// WithPrefix returns a logger sharing the same backend with an extra
// [component] tag.
func (l *Logger) WithPrefix(prefix string) *Logger {
	newPrefix := l.prefix
	if newPrefix != "" {
		newPrefix += " "
	}
	newPrefix += "[" + prefix + "]"

	return &Logger{
		config: l.config,
		log:    l.log,
		file:   l.file,
		prefix: newPrefix,
	}
}

func (l *Logger) cleanOldLogs() {
	for range time.Tick(24 * time.Hour) {
		files, err := os.ReadDir(l.config.LogsDir)
		if err != nil {
			l.Error("Failed to read logs directory", "error", err)
			continue
		}

		cutoff := time.Now().AddDate(0, 0, int(-l.config.SavingDays))
		for _, file := range files {
			if info, err := file.Info(); err == nil && !file.IsDir() && info.ModTime().Before(cutoff) {
				if err := os.Remove(filepath.Join(l.config.LogsDir, file.Name())); err != nil {
					l.Error("Failed to delete old log file", "file", file.Name(), "error", err)
				}
			}
		}
	}
}

func (l *Logger) entry(fields ...interface{}) *logrus.Entry {
	data := logrus.Fields{}
	for i := 0; i < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		if i+1 < len(fields) {
			data[key] = fields[i+1]
		} else {
			data[key] = "?"
		}
	}
	return l.log.WithFields(data)
}

func (l *Logger) msg(msg string) string {
	if l.prefix == "" {
		return msg
	}
	return l.prefix + " " + msg
}

func (l *Logger) Debug(msg string, fields ...interface{}) { l.entry(fields...).Debug(l.msg(msg)) }
func (l *Logger) Info(msg string, fields ...interface{})  { l.entry(fields...).Info(l.msg(msg)) }
func (l *Logger) Warn(msg string, fields ...interface{})  { l.entry(fields...).Warn(l.msg(msg)) }
func (l *Logger) Error(msg string, fields ...interface{}) { l.entry(fields...).Error(l.msg(msg)) }

func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// FromLogrus wraps an existing logrus backend, for embedders that manage
// their own logger.
func FromLogrus(backend *logrus.Logger, prefix string) *Logger {
	return &Logger{
		config: &Config{Enabled: true},
		log:    backend,
		prefix: prefix,
	}
}

// Discard returns a logger that drops everything; used in tests.
func Discard() *Logger {
	return NewLogger(&Config{Enabled: false}, "")
}
