package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is a structured logger with file rotation capabilities
type Logger struct {
	*logrus.Logger
	logFile         *lumberjack.Logger
	sweepLogDir     string
	sweepHook       *sweepLogHook
	currentSweepLog *os.File
	mu              sync.Mutex
}

// Config contains logger configuration
type Config struct {
	LogDir     string
	EnableFile bool
	Level      string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// New creates a new logger instance
func New(config Config) *Logger {
	logger := &Logger{
		Logger:      logrus.New(),
		sweepLogDir: filepath.Join(config.LogDir, "sweeps"),
	}

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		DisableColors: false,
	})

	level := logrus.InfoLevel
	switch config.Level {
	case "debug":
		level = logrus.DebugLevel
	case "info":
		level = logrus.InfoLevel
	case "warn":
		level = logrus.WarnLevel
	case "error":
		level = logrus.ErrorLevel
	}
	logger.SetLevel(level)

	if config.EnableFile {
		if err := os.MkdirAll(config.LogDir, 0755); err != nil {
			logger.Errorf("Failed to create log directory: %v", err)
			return logger
		}

		// Log file with rotation
		logger.logFile = &lumberjack.Logger{
			Filename:   filepath.Join(config.LogDir, "quietweb.log"),
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAge,
			Compress:   config.Compress,
		}

		// Log to both file and stderr
		mw := io.MultiWriter(logger.logFile, os.Stderr)
		logger.SetOutput(mw)
	}

	return logger
}

// BeginSweepLog opens a separate log file capturing a single maintenance
// sweep. The hook is installed once; subsequent calls retarget it to the
// new file, so a long-running loop never accumulates stale hooks.
func (l *Logger) BeginSweepLog(startedAt time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.sweepLogDir, 0755); err != nil {
		return err
	}

	name := fmt.Sprintf("sweep_%s.log", startedAt.Format("20060102-150405"))
	filename := filepath.Join(l.sweepLogDir, filepath.Clean(filepath.Join("/", name)))
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	if l.sweepHook == nil {
		l.sweepHook = &sweepLogHook{}
		l.AddHook(l.sweepHook)
	}
	l.sweepHook.setFile(f)

	if l.currentSweepLog != nil {
		l.currentSweepLog.Close()
	}
	l.currentSweepLog = f

	return nil
}

// Close cleanly closes the logger
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sweepHook != nil {
		l.sweepHook.setFile(nil)
	}
	if l.currentSweepLog != nil {
		l.currentSweepLog.Close()
		l.currentSweepLog = nil
	}
}

// sweepLogHook is a logrus hook that writes to the sweep-specific log file
type sweepLogHook struct {
	mu   sync.Mutex
	file *os.File
}

func (h *sweepLogHook) setFile(f *os.File) {
	h.mu.Lock()
	h.file = f
	h.mu.Unlock()
}

// Levels returns the log levels this hook should fire for
func (h *sweepLogHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire is called when a log event occurs
func (h *sweepLogHook) Fire(entry *logrus.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.file == nil {
		return nil
	}
	line, err := entry.String()
	if err != nil {
		return err
	}

	_, err = h.file.WriteString(line)
	return err
}
