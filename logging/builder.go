package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// LoggingBuilder 日志构建器
type LoggingBuilder struct {
	providers    []LoggerProvider
	minimumLevel LogLevel
	mu           sync.RWMutex
}

// NewLoggingBuilder 创建日志构建器
func NewLoggingBuilder() *LoggingBuilder {
	return &LoggingBuilder{
		providers:    make([]LoggerProvider, 0),
		minimumLevel: LogLevelInfo,
	}
}

// SetMinimumLevel 设置最小日志级别
func (b *LoggingBuilder) SetMinimumLevel(level LogLevel) *LoggingBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.minimumLevel = level
	return b
}

// AddProvider 添加日志提供者
func (b *LoggingBuilder) AddProvider(provider LoggerProvider) *LoggingBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.providers = append(b.providers, provider)
	return b
}

// AddConsole 添加控制台日志
func (b *LoggingBuilder) AddConsole(options ...ConsoleLoggerOptions) *LoggingBuilder {
	opts := ConsoleLoggerOptions{
		IncludeTimestamp: true,
		TimestampFormat:  "2006-01-02 15:04:05",
		ColorOutput:      true,
		Output:           os.Stdout,
	}
	if len(options) > 0 {
		opts = options[0]
	}
	return b.AddProvider(NewConsoleLoggerProvider(opts))
}

// AddWriter 添加写入任意 io.Writer 的日志
func (b *LoggingBuilder) AddWriter(w io.Writer, formatter Formatter) *LoggingBuilder {
	return b.AddProvider(NewWriterLoggerProvider(WriterLoggerOptions{
		Output:    w,
		Formatter: formatter,
	}))
}

// AddFile 添加文件日志，文件无法打开时退回到标准错误输出
func (b *LoggingBuilder) AddFile(path string, options ...FileLoggerOptions) *LoggingBuilder {
	opts := FileLoggerOptions{Path: path}
	if len(options) > 0 {
		opts = options[0]
		opts.Path = path
	}

	provider, err := NewFileLoggerProvider(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v, falling back to stderr\n", err)
		return b.AddConsole(ConsoleLoggerOptions{
			IncludeTimestamp: true,
			Output:           os.Stderr,
			Json:             opts.Json,
		})
	}
	return b.AddProvider(provider)
}

// Configure 按 Options 添加提供者并设置级别
func (b *LoggingBuilder) Configure(opts Options) *LoggingBuilder {
	b.SetMinimumLevel(opts.Level)

	json := opts.Format == FormatJson
	if opts.Console {
		b.AddConsole(ConsoleLoggerOptions{
			IncludeTimestamp: true,
			TimestampFormat:  opts.TimestampFormat,
			ColorOutput:      opts.Color && !json,
			Output:           os.Stdout,
			Json:             json,
		})
	}
	if opts.File != "" {
		b.AddFile(opts.File, FileLoggerOptions{
			Json:       json,
			Async:      opts.Async,
			BufferSize: opts.BufferSize,
		})
	}
	return b
}

// Build 构建日志工厂
func (b *LoggingBuilder) Build() LoggerFactory {
	b.mu.RLock()
	defer b.mu.RUnlock()

	factory := &loggerFactory{
		providers:    make([]LoggerProvider, 0, len(b.providers)),
		minimumLevel: b.minimumLevel,
	}

	for _, provider := range b.providers {
		factory.AddProvider(provider)
	}

	return factory
}
