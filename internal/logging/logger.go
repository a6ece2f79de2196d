package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// LogLevel определяет уровни логирования
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) logrus() logrus.Level {
	switch l {
	case TRACE:
		return logrus.TraceLevel
	case DEBUG:
		return logrus.DebugLevel
	case WARN:
		return logrus.WarnLevel
	case ERROR:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// ParseLevel понимает как наши имена уровней, так и имена logrus.
// Неизвестное значение даёт INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return TRACE
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Logger is a component logger. Everything at or above the file level goes
// to the log file, the console only gets its own minimum and up.
type Logger struct {
	component string
	entry     *logrus.Entry
	backend   *logrus.Logger
	file      *os.File

	mu              sync.RWMutex
	minConsoleLevel LogLevel
	minFileLevel    LogLevel
}

// Options configures NewLoggerWithOptions.
type Options struct {
	// Dir for log files. Empty disables file output.
	Dir          string
	ConsoleLevel LogLevel
	FileLevel    LogLevel
	JSON         bool
	Console      io.Writer
}

// OptionsFromEnv reads LOG_LEVEL, LOG_FORMAT and LOG_DIR.
func OptionsFromEnv() Options {
	opts := Options{
		Dir:          "logs",
		ConsoleLevel: INFO,
		FileLevel:    DEBUG,
		Console:      os.Stdout,
	}
	if lvl, ok := os.LookupEnv("LOG_LEVEL"); ok {
		opts.ConsoleLevel = ParseLevel(lvl)
		if opts.ConsoleLevel < opts.FileLevel {
			opts.FileLevel = opts.ConsoleLevel
		}
	}
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		opts.JSON = true
	}
	if dir, ok := os.LookupEnv("LOG_DIR"); ok {
		opts.Dir = dir
	}
	return opts
}

// NewLogger создаёт логгер компонента с настройками из окружения
func NewLogger(component string) (*Logger, error) {
	return NewLoggerWithOptions(component, OptionsFromEnv())
}

// NewLoggerWithOptions создаёт логгер компонента
func NewLoggerWithOptions(component string, opts Options) (*Logger, error) {
	backend := logrus.New()
	backend.SetLevel(logrus.TraceLevel)
	if opts.JSON {
		backend.SetFormatter(&logrus.JSONFormatter{})
	} else {
		backend.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}
	// Вывод делает хук, чтобы у консоли и файла были разные уровни
	backend.SetOutput(io.Discard)

	l := &Logger{
		component:       component,
		backend:         backend,
		minConsoleLevel: opts.ConsoleLevel,
		minFileLevel:    opts.FileLevel,
	}

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}
	backend.AddHook(&levelHook{writer: console, min: func() LogLevel { return l.consoleLevel() }})

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return nil, fmt.Errorf("ошибка создания директории %s: %w", opts.Dir, err)
		}
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		filename := filepath.Join(opts.Dir, fmt.Sprintf("%s_%s.log", component, timestamp))

		file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("ошибка создания файла логов: %w", err)
		}
		l.file = file
		backend.AddHook(&levelHook{
			writer: file,
			min:    func() LogLevel { return l.fileLevel() },
			format: &logrus.JSONFormatter{},
		})
	}

	l.entry = backend.WithField("component", component)
	return l, nil
}

func (l *Logger) consoleLevel() LogLevel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.minConsoleLevel
}

func (l *Logger) fileLevel() LogLevel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.minFileLevel
}

// SetLevels меняет пороги консоли и файла
func (l *Logger) SetLevels(console, file LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minConsoleLevel = console
	l.minFileLevel = file
}

// Component returns the component name the logger was created for.
func (l *Logger) Component() string {
	return l.component
}

// WithFields returns a logrus entry carrying the component plus fields,
// for call sites that want structured output.
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	return l.entry.WithFields(logrus.Fields(fields))
}

// Close закрывает файл логов
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *Logger) Trace(format string, args ...interface{}) { l.log(TRACE, format, args...) }
func (l *Logger) Debug(format string, args ...interface{}) { l.log(DEBUG, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.log(INFO, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.log(WARN, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.log(ERROR, format, args...) }

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	if level < l.consoleLevel() && level < l.fileLevel() {
		return
	}
	l.entry.Logf(level.logrus(), format, args...)
}

// levelHook пишет записи не ниже min в writer
type levelHook struct {
	writer io.Writer
	min    func() LogLevel
	format logrus.Formatter
	mu     sync.Mutex
}

func (h *levelHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *levelHook) Fire(e *logrus.Entry) error {
	if fromLogrus(e.Level) < h.min() {
		return nil
	}
	formatter := h.format
	if formatter == nil {
		formatter = e.Logger.Formatter
	}
	line, err := formatter.Format(e)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.writer.Write(line)
	return err
}

func fromLogrus(level logrus.Level) LogLevel {
	switch level {
	case logrus.TraceLevel:
		return TRACE
	case logrus.DebugLevel:
		return DEBUG
	case logrus.InfoLevel:
		return INFO
	case logrus.WarnLevel:
		return WARN
	default:
		return ERROR
	}
}

// === Логгер по умолчанию ===

var (
	defaultMu     sync.RWMutex
	defaultLogger = newConsoleLogger("default")
	// До InitDefaultLogger компоненты пишут только в консоль
	filesEnabled bool
)

func componentOptions() Options {
	opts := OptionsFromEnv()
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	if !filesEnabled {
		opts.Dir = ""
	}
	return opts
}

func newConsoleLogger(component string) *Logger {
	l, _ := NewLoggerWithOptions(component, Options{ConsoleLevel: INFO, FileLevel: ERROR, Console: os.Stdout})
	return l
}

// InitDefaultLogger заменяет логгер пакетного уровня логгером компонента
// (с файлом в logs/)
func InitDefaultLogger(component string) error {
	l, err := NewLogger(component)
	if err != nil {
		return err
	}
	defaultMu.Lock()
	defaultLogger = l
	filesEnabled = true
	defaultMu.Unlock()
	return nil
}

// SetDefaultLogger подменяет логгер по умолчанию (удобно в тестах)
func SetDefaultLogger(l *Logger) {
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

// CloseDefaultLogger закрывает файл логгера по умолчанию
func CloseDefaultLogger() {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	_ = l.Close()
}

// Default returns the package-level logger.
func Default() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

func Trace(format string, args ...interface{}) { Default().Trace(format, args...) }
func Debug(format string, args ...interface{}) { Default().Debug(format, args...) }
func Info(format string, args ...interface{})  { Default().Info(format, args...) }
func Warn(format string, args ...interface{})  { Default().Warn(format, args...) }
func Error(format string, args ...interface{}) { Default().Error(format, args...) }
