package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"emprendyup-catalog/internal/config"
)

const defaultLogLevel = "info"

type LoggerService interface {
	Log(value string)
	LogError(value string, err error)
	LogWarning(value string)
	LogSuccess(value string)
}

// Logger writes structured JSON through zap and mirrors errors and successes to
// Telegram when a bot is configured.
type Logger struct {
	zap      *zap.Logger
	notifier notifier
}

type notifier interface {
	Notify(message string) error
}

func NewLogger(cfg config.TelegramBotConfig) (*Logger, error) {
	zl, err := newZap()
	if err != nil {
		return nil, err
	}
	logger := NewWithZap(zl)
	if tg := newTelegramNotifier(cfg, nil); tg != nil {
		logger.notifier = tg
	} else {
		zl.Warn("telegram credentials missing, notifications disabled")
	}
	return logger, nil
}

// NewWithZap wraps an existing zap logger without any notifier.
func NewWithZap(zl *zap.Logger) *Logger {
	if zl == nil {
		zl = zap.NewNop()
	}
	return &Logger{zap: zl}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return NewWithZap(zap.NewNop())
}

func (l *Logger) Log(value string) {
	if l == nil {
		return
	}
	l.zap.Info(clean(value))
}

func (l *Logger) LogError(value string, err error) {
	if l == nil {
		return
	}
	l.zap.Error(clean(value), zap.Error(err))
	message := clean(value)
	if err != nil {
		message = message + ": " + err.Error()
	}
	l.notify(formatMessage(iconError, "ERROR", message))
}

func (l *Logger) LogWarning(value string) {
	if l == nil {
		return
	}
	l.zap.Warn(clean(value))
}

func (l *Logger) LogSuccess(value string) {
	if l == nil {
		return
	}
	l.zap.Info(clean(value), zap.Bool("success", true))
	l.notify(formatMessage(iconSuccess, "SUCCESS", value))
}

func (l *Logger) Sync() error {
	if l == nil {
		return nil
	}
	return l.zap.Sync()
}

func (l *Logger) notify(message string) {
	if l.notifier == nil {
		return
	}
	if err := l.notifier.Notify(message); err != nil {
		l.zap.Warn("telegram notification failed", zap.Error(err))
	}
}

func newZap() (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))))); err != nil {
		_ = level.UnmarshalText([]byte(defaultLogLevel))
	}

	encoderCfg := zapcore.EncoderConfig{
		MessageKey: "message",
		TimeKey:    "timestamp",
		LevelKey:   "severity",
		EncodeTime: zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(strings.ToUpper(level.String()))
		},
		CallerKey:     "caller",
		EncodeCaller:  zapcore.ShortCallerEncoder,
		StacktraceKey: "stacktrace",
	}

	cfg := zap.Config{
		Level:             level,
		Encoding:          "json",
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
	}
	// Skip the LoggerService wrapper frame so callers show up.
	return cfg.Build(zap.AddCallerSkip(1))
}

func clean(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return "-"
	}
	return v
}
