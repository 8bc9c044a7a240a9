package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// entryWriter 接收格式化前的日志条目
type entryWriter interface {
	WriteLog(entry *LogEntry)
}

// syncWriter 同步格式化并写入
type syncWriter struct {
	mu        sync.Mutex
	writer    io.Writer
	formatter Formatter
}

func (w *syncWriter) WriteLog(entry *LogEntry) {
	data, err := w.formatter.Format(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: format error: %v\n", err)
		return
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.writer.Write(data); err != nil {
		fmt.Fprintf(os.Stderr, "logging: write error: %v\n", err)
	}
}

// WriterLoggerOptions 基于 io.Writer 的日志提供者选项
type WriterLoggerOptions struct {
	Output    io.Writer
	Formatter Formatter
	// Async 为 true 时通过 AsyncWriter 在后台协程写入
	Async      bool
	BufferSize int
}

// WriterLoggerProvider 将日志条目格式化后写入 io.Writer。
// 控制台和文件日志都是它的特例。
type WriterLoggerProvider struct {
	out          entryWriter
	closers      []io.Closer
	minimumLevel LogLevel
	mu           sync.RWMutex
}

// NewWriterLoggerProvider 创建写入器日志提供者
func NewWriterLoggerProvider(options WriterLoggerOptions) *WriterLoggerProvider {
	if options.Output == nil {
		options.Output = os.Stdout
	}
	if options.Formatter == nil {
		options.Formatter = NewTextFormatter()
	}

	p := &WriterLoggerProvider{minimumLevel: LogLevelInfo}
	if options.Async {
		size := options.BufferSize
		if size <= 0 {
			size = 1024
		}
		async := NewAsyncWriter(options.Output, options.Formatter, size)
		p.out = async
		p.closers = append(p.closers, async)
	} else {
		p.out = &syncWriter{writer: options.Output, formatter: options.Formatter}
	}
	return p
}

func (p *WriterLoggerProvider) CreateLogger(category string) Logger {
	return &writerLogger{category: category, provider: p}
}

func (p *WriterLoggerProvider) SetMinimumLevel(level LogLevel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.minimumLevel = level
}

func (p *WriterLoggerProvider) enabled(level LogLevel) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return level >= p.minimumLevel
}

// Close 刷新异步写入并关闭底层文件
func (p *WriterLoggerProvider) Close() error {
	var errs []error
	for _, c := range p.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ConsoleLoggerOptions 控制台日志选项
type ConsoleLoggerOptions struct {
	IncludeTimestamp bool
	TimestampFormat  string
	ColorOutput      bool
	Output           io.Writer
	// Json 为 true 时输出 JSON 行
	Json bool
}

// NewConsoleLoggerProvider 创建控制台日志提供者
func NewConsoleLoggerProvider(options ConsoleLoggerOptions) *WriterLoggerProvider {
	var formatter Formatter
	if options.Json {
		formatter = NewJsonFormatter()
	} else {
		formatter = &TextFormatter{
			IncludeTimestamp: options.IncludeTimestamp,
			TimestampFormat:  options.TimestampFormat,
			ColorOutput:      options.ColorOutput,
		}
	}
	return NewWriterLoggerProvider(WriterLoggerOptions{
		Output:    options.Output,
		Formatter: formatter,
	})
}

// FileLoggerOptions 文件日志选项
type FileLoggerOptions struct {
	Path       string
	Json       bool
	Async      bool
	BufferSize int
}

// NewFileLoggerProvider 以追加模式打开文件并创建日志提供者
func NewFileLoggerProvider(options FileLoggerOptions) (*WriterLoggerProvider, error) {
	file, err := os.OpenFile(options.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("logging: failed to open log file %s: %w", options.Path, err)
	}

	var formatter Formatter = NewTextFormatter()
	if options.Json {
		formatter = NewJsonFormatter()
	}

	p := NewWriterLoggerProvider(WriterLoggerOptions{
		Output:     file,
		Formatter:  formatter,
		Async:      options.Async,
		BufferSize: options.BufferSize,
	})
	// 异步写入器必须先于文件关闭
	p.closers = append(p.closers, file)
	return p, nil
}

// writerLogger 写入器日志实现
type writerLogger struct {
	category string
	fields   []Field
	provider *WriterLoggerProvider
}

func (l *writerLogger) Trace(msg string, fields ...Field) {
	l.Log(LogLevelTrace, msg, fields...)
}

func (l *writerLogger) Debug(msg string, fields ...Field) {
	l.Log(LogLevelDebug, msg, fields...)
}

func (l *writerLogger) Info(msg string, fields ...Field) {
	l.Log(LogLevelInfo, msg, fields...)
}

func (l *writerLogger) Warn(msg string, fields ...Field) {
	l.Log(LogLevelWarn, msg, fields...)
}

func (l *writerLogger) Error(msg string, fields ...Field) {
	l.Log(LogLevelError, msg, fields...)
}

func (l *writerLogger) Fatal(msg string, fields ...Field) {
	l.Log(LogLevelFatal, msg, fields...)
	l.provider.Close()
	os.Exit(1)
}

func (l *writerLogger) Log(level LogLevel, msg string, fields ...Field) {
	if !l.provider.enabled(level) {
		return
	}
	l.provider.out.WriteLog(&LogEntry{
		Time:     time.Now(),
		Level:    level,
		Category: l.category,
		Message:  msg,
		Fields:   mergeFields(l.fields, fields),
	})
}

func (l *writerLogger) WithFields(fields ...Field) Logger {
	return &writerLogger{
		category: l.category,
		fields:   mergeFields(l.fields, fields),
		provider: l.provider,
	}
}

func (l *writerLogger) WithCategory(category string) Logger {
	return &writerLogger{
		category: category,
		fields:   l.fields,
		provider: l.provider,
	}
}
