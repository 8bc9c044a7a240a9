package logging

import (
	"time"
)

// Formatter 日志格式化接口
type Formatter interface {
	// Format 格式化日志条目
	Format(entry *LogEntry) ([]byte, error)
}

// FormatterFunc 函数适配为 Formatter
type FormatterFunc func(entry *LogEntry) ([]byte, error)

// Format 实现 Formatter
func (f FormatterFunc) Format(entry *LogEntry) ([]byte, error) {
	return f(entry)
}

// LogEntry 日志条目
type LogEntry struct {
	Time     time.Time
	Level    LogLevel
	Category string
	Message  string
	Fields   []Field
}
