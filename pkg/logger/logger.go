package logger

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the process-wide logger. It is a no-op until InitLogger succeeds,
// so packages that log during tests never see a nil logger.
var (
	Log = zap.NewNop()
)

type Config struct {
	Level      string `mapstructure:"level"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// InitLogger initializes the global logger
func InitLogger(cfg *Config) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}

	Log = l
	zap.ReplaceGlobals(Log)

	return nil
}

// New builds a JSON logger writing to stdout and to a rotated file.
func New(cfg *Config) (*zap.Logger, error) {
	var level = new(zapcore.Level)
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, err
	}

	core := zapcore.NewCore(getEncoder(), getLogWriter(cfg), level)
	return zap.New(core, zap.AddCaller()), nil
}

func getEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(encoderConfig)
}

func getLogWriter(cfg *Config) zapcore.WriteSyncer {
	consoleSyncer := zapcore.AddSync(os.Stdout)
	if cfg.Filename == "" {
		return consoleSyncer
	}

	lumberJackLogger := &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	// File output is buffered (256KB, flushed every 5s); console is not.
	bufferedFileSyncer := &zapcore.BufferedWriteSyncer{
		WS:            zapcore.AddSync(lumberJackLogger),
		Size:          256 * 1024,
		FlushInterval: 5 * time.Second,
	}

	return zapcore.NewMultiWriteSyncer(consoleSyncer, bufferedFileSyncer)
}

// Sync flushes any buffered log entries
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}
