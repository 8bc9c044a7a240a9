package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// AsyncWriter 异步日志写入器，格式化和写入都在后台协程完成
type AsyncWriter struct {
	writer     io.Writer
	formatter  Formatter
	entryCh    chan *LogEntry
	wg         sync.WaitGroup
	mu         sync.RWMutex
	closed     bool
	errHandler func(error)
}

// NewAsyncWriter 创建新的异步写入器
func NewAsyncWriter(writer io.Writer, formatter Formatter, bufferSize int) *AsyncWriter {
	w := &AsyncWriter{
		writer:    writer,
		formatter: formatter,
		entryCh:   make(chan *LogEntry, bufferSize),
	}

	w.wg.Add(1)
	go w.process()

	return w
}

// WriteLog 写入日志条目。队列满时阻塞，保证不丢日志；关闭后的写入被丢弃。
func (w *AsyncWriter) WriteLog(entry *LogEntry) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return
	}
	w.entryCh <- entry
}

// Close 关闭写入器并等待队列中的日志写完
func (w *AsyncWriter) Close() error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.entryCh)
	}
	w.mu.Unlock()

	w.wg.Wait()
	return nil
}

func (w *AsyncWriter) process() {
	defer w.wg.Done()

	for entry := range w.entryCh {
		data, err := w.formatter.Format(entry)
		if err != nil {
			w.handleError(fmt.Errorf("logging: format error: %w", err))
			continue
		}
		if len(data) == 0 || data[len(data)-1] != '\n' {
			data = append(data, '\n')
		}
		if _, err := w.writer.Write(data); err != nil {
			w.handleError(fmt.Errorf("logging: write error: %w", err))
		}
	}
}

func (w *AsyncWriter) handleError(err error) {
	if w.errHandler != nil {
		w.errHandler(err)
		return
	}
	fmt.Fprintln(os.Stderr, err)
}

// SetErrorHandler 设置错误处理函数，需在写入前调用
func (w *AsyncWriter) SetErrorHandler(handler func(error)) {
	w.errHandler = handler
}
