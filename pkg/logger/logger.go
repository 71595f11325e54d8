// Package logger wraps zap behind a small interface so components depend on
// the interface rather than a concrete logging backend.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Field type
type Field = zapcore.Field

// Logger interface
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)
	With(fields ...Field) Logger
	Named(name string) Logger
	Sync() error
}

// Config defines logger configuration
type Config struct {
	Level       string   `json:"level" yaml:"level"`
	Encoding    string   `json:"encoding" yaml:"encoding"`
	OutputPaths []string `json:"outputPaths" yaml:"outputPaths"`
	MaxSize     int      `json:"maxSize" yaml:"maxSize"` // MB
	MaxBackups  int      `json:"maxBackups" yaml:"maxBackups"`
	MaxAge      int      `json:"maxAge" yaml:"maxAge"` // days
	Compress    bool     `json:"compress" yaml:"compress"`
	Development bool     `json:"development" yaml:"development"`
}

type logger struct {
	zap *zap.Logger
}

// Option defines logger option function
type Option func(*Config)

// WithLevel sets logger level
func WithLevel(level string) Option {
	return func(c *Config) { c.Level = level }
}

// WithEncoding sets logger encoding
func WithEncoding(encoding string) Option {
	return func(c *Config) { c.Encoding = encoding }
}

// WithOutputPaths sets logger output paths
func WithOutputPaths(paths []string) Option {
	return func(c *Config) { c.OutputPaths = paths }
}

// NewLogger creates a new logger instance
func NewLogger(opts ...Option) (Logger, error) {
	cfg := &Config{
		Level:       "info",
		Encoding:    "json",
		OutputPaths: []string{"stdout", "logs/orchestrator.log"},
		MaxSize:     100,
		MaxBackups:  3,
		MaxAge:      7,
		Compress:    true,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	for _, path := range cfg.OutputPaths {
		if path != "stdout" && path != "stderr" {
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return nil, fmt.Errorf("can't create log directory: %w", err)
			}
		}
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("can't parse log level: %w", err)
	}

	var cores []zapcore.Core
	for _, path := range cfg.OutputPaths {
		var writer zapcore.WriteSyncer
		switch path {
		case "stdout":
			writer = zapcore.AddSync(os.Stdout)
		case "stderr":
			writer = zapcore.AddSync(os.Stderr)
		default:
			writer = zapcore.AddSync(&lumberjack.Logger{
				Filename:   path,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   cfg.Compress,
			})
		}

		var encoder zapcore.Encoder
		if cfg.Encoding == "json" {
			encoder = zapcore.NewJSONEncoder(encoderConfig)
		} else {
			encoder = zapcore.NewConsoleEncoder(encoderConfig)
		}

		cores = append(cores, zapcore.NewCore(encoder, writer, level))
	}

	options := []zap.Option{
		zap.AddCaller(),
		zap.AddCallerSkip(1),
	}
	if cfg.Development {
		options = append(options, zap.Development())
	}

	zapLogger := zap.New(zapcore.NewTee(cores...), options...)
	return &logger{zap: zapLogger}, nil
}

// Various field constructors
func String(key string, val string) Field          { return zap.String(key, val) }
func Int(key string, val int) Field                { return zap.Int(key, val) }
func Int64(key string, val int64) Field            { return zap.Int64(key, val) }
func Float64(key string, val float64) Field        { return zap.Float64(key, val) }
func Bool(key string, val bool) Field              { return zap.Bool(key, val) }
func Any(key string, val interface{}) Field        { return zap.Any(key, val) }
func Error(err error) Field                        { return zap.Error(err) }
func Time(key string, val time.Time) Field         { return zap.Time(key, val) }
func Duration(key string, val time.Duration) Field { return zap.Duration(key, val) }

func (l *logger) Debug(msg string, fields ...Field) { l.zap.Debug(msg, fields...) }
func (l *logger) Info(msg string, fields ...Field)  { l.zap.Info(msg, fields...) }
func (l *logger) Warn(msg string, fields ...Field)  { l.zap.Warn(msg, fields...) }
func (l *logger) Error(msg string, fields ...Field) { l.zap.Error(msg, fields...) }
func (l *logger) Fatal(msg string, fields ...Field) { l.zap.Fatal(msg, fields...) }

func (l *logger) With(fields ...Field) Logger {
	return &logger{zap: l.zap.With(fields...)}
}

func (l *logger) Named(name string) Logger {
	return &logger{zap: l.zap.Named(name)}
}

func (l *logger) Sync() error {
	return l.zap.Sync()
}
