package webserver

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// ModuleName 是所有日志事件使用的模块名
const ModuleName = "web-server"

// =============================================================================
// 📝 日志能力
// =============================================================================

// Level 日志级别
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Logger 接收 web-server 的生命周期日志事件
type Logger interface {
	Log(module string, level Level, message string)
}

// LoggerFunc 把普通函数适配为 Logger
type LoggerFunc func(module string, level Level, message string)

// Log implements Logger.
func (f LoggerFunc) Log(module string, level Level, message string) {
	f(module, level, message)
}

type zapLogger struct {
	logger *zap.Logger
}

// NewZapLogger 把日志事件转发给 zap，模块名作为 logger 名称
func NewZapLogger(logger *zap.Logger) Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &zapLogger{logger: logger}
}

func (l *zapLogger) Log(module string, level Level, message string) {
	named := l.logger.Named(module)
	switch level {
	case LevelWarn:
		named.Warn(message)
	case LevelError:
		named.Error(message)
	default:
		named.Info(message)
	}
}

// NewConsoleLogger 返回以 "<level>: [<module>] <message>" 格式逐行写入 w 的 Logger。
// 未配置 Logger 时 web-server 使用写入 os.Stdout 的版本。
func NewConsoleLogger(w io.Writer) Logger {
	encoderConfig := zapcore.EncoderConfig{
		LevelKey:   "level",
		NameKey:    "module",
		MessageKey: "message",
		LineEnding: zapcore.DefaultLineEnding,
		EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(l.String() + ":")
		},
		EncodeName: func(name string, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString("[" + name + "]")
		},
		ConsoleSeparator: " ",
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(zapcore.AddSync(w)),
		zapcore.DebugLevel,
	)
	return &zapLogger{logger: zap.New(core)}
}

func defaultLogger() Logger {
	return NewConsoleLogger(os.Stdout)
}

// =============================================================================
// 🌍 翻译能力
// =============================================================================

// Translator 翻译人类可读的日志消息
type Translator interface {
	Translate(message string) string
}

// TranslatorFunc 把普通函数适配为 Translator
type TranslatorFunc func(message string) string

// Translate implements Translator.
func (f TranslatorFunc) Translate(message string) string {
	return f(message)
}

type passthrough struct{}

func (passthrough) Translate(message string) string { return message }

type catalogTranslator struct {
	printer *message.Printer
	known   map[string]struct{}
}

// NewCatalogTranslator 基于 x/text 消息目录构建 Translator。
// messages 以英文原文为键；未收录的消息原样返回。
func NewCatalogTranslator(locale string, messages map[string]string) (Translator, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}

	builder := catalog.NewBuilder(catalog.Fallback(tag))
	known := make(map[string]struct{}, len(messages))
	for key, msg := range messages {
		if err := builder.SetString(tag, key, msg); err != nil {
			return nil, fmt.Errorf("failed to add message %q: %w", key, err)
		}
		known[key] = struct{}{}
	}

	return &catalogTranslator{
		printer: message.NewPrinter(tag, message.Catalog(builder)),
		known:   known,
	}, nil
}

func (t *catalogTranslator) Translate(msg string) string {
	// 未收录的消息不经过 printer，避免其中的 % 被当作格式动词
	if _, ok := t.known[msg]; !ok {
		return msg
	}
	var key message.Reference = msg
	return t.printer.Sprintf(key)
}
