package logger

import (
	"io"
	"os"
	"strings"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzzap "github.com/hertz-contrib/logger/zap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"GeetaSaathi/config"
)

var (
	// 未调用 Init 前（例如单元测试）使用 Nop
	Logger   = zap.NewNop()
	logClose io.Closer
)

// Init 构建 zap 日志并同时接管 hertz 的 hlog。
// 每条日志都带 service / version / env 字段。
func Init() {
	ws, openErr := buildWriteSyncer(config.Cfg.LoggerOutputPath)

	hzLogger := newLogger(&config.Cfg, ws)
	hlog.SetLogger(hzLogger)
	hlog.SetLevel(toHlogLevel(parseLevel(config.Cfg.LoggerLevel)))

	Logger = hzLogger.Logger()
	if openErr != nil {
		Logger.Warn("Failed to open log file, falling back to stdout",
			zap.String("path", config.Cfg.LoggerOutputPath),
			zap.Error(openErr),
		)
	}
	Logger.Info("Logger initialized",
		zap.String("level", strings.ToUpper(config.Cfg.LoggerLevel)),
		zap.String("format", config.Cfg.LoggerFormat),
	)
}

func newLogger(cfg *config.Config, ws zapcore.WriteSyncer) *hertzzap.Logger {
	return hertzzap.NewLogger(
		hertzzap.WithCoreEnc(buildEncoder(cfg)),
		hertzzap.WithCoreWs(ws),
		hertzzap.WithCoreLevel(zap.NewAtomicLevelAt(parseLevel(cfg.LoggerLevel))),
		hertzzap.WithZapOptions(
			zap.AddCaller(),
			zap.AddStacktrace(zapcore.ErrorLevel),
			zap.Fields(serviceFields(cfg)...),
		),
	)
}

func serviceFields(cfg *config.Config) []zap.Field {
	return []zap.Field{
		zap.String("service", cfg.ServiceName),
		zap.String("version", cfg.ServiceVersion),
		zap.String("env", cfg.Environment),
	}
}

func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
	if logClose != nil {
		_ = logClose.Close()
	}
}

func buildEncoder(cfg *config.Config) zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	// 显式要求 json 时开发环境也输出 json
	if strings.EqualFold(cfg.LoggerFormat, "json") {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewJSONEncoder(encoderConfig)
	}
	if cfg.IsDevelopment() || strings.EqualFold(cfg.LoggerFormat, "text") {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(encoderConfig)
	}

	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(encoderConfig)
}

// buildWriteSyncer 文件打不开时退回 stdout，错误交给调用方记录
func buildWriteSyncer(path string) (zapcore.WriteSyncer, error) {
	if path == "" || strings.EqualFold(path, "stdout") {
		return zapcore.AddSync(os.Stdout), nil
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return zapcore.AddSync(os.Stdout), err
	}
	logClose = file
	return zapcore.AddSync(file), nil
}

// parseLevel 大小写均可，无法识别时为 INFO
func parseLevel(level string) zapcore.Level {
	l, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

func toHlogLevel(level zapcore.Level) hlog.Level {
	switch level {
	case zapcore.DebugLevel:
		return hlog.LevelDebug
	case zapcore.InfoLevel:
		return hlog.LevelInfo
	case zapcore.WarnLevel:
		return hlog.LevelWarn
	case zapcore.ErrorLevel:
		return hlog.LevelError
	default:
		return hlog.LevelFatal
	}
}
