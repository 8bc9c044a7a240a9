package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextFormatter(t *testing.T) {
	f := NewTextFormatter()
	entry := &LogEntry{
		Time:     time.Now(),
		Level:    LogLevelInfo,
		Category: "Test",
		Message:  "Hello",
		Fields:   []Field{{Key: "key", Value: "val"}},
	}

	out, err := f.Format(entry)
	require.NoError(t, err)

	str := string(out)
	assert.Contains(t, str, "INFO")
	assert.Contains(t, str, "[Test]")
	assert.Contains(t, str, "Hello")
	assert.Contains(t, str, "{key=val}")
	assert.True(t, strings.HasSuffix(str, "\n"))
}

func TestJsonFormatter(t *testing.T) {
	f := NewJsonFormatter()
	entry := &LogEntry{
		Time:     time.Now(),
		Level:    LogLevelWarn,
		Category: "Test",
		Message:  "Hello",
		Fields: []Field{
			{Key: "key", Value: "val"},
			{Key: "err", Value: errors.New("boom")},
		},
	}

	out, err := f.Format(entry)
	require.NoError(t, err)

	var data map[string]any
	require.NoError(t, json.Unmarshal(out, &data))
	assert.Equal(t, "WARN", data["level"])
	assert.Equal(t, "Test", data["category"])
	assert.Equal(t, map[string]any{"key": "val", "err": "boom"}, data["fields"])
}

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"trace":   LogLevelTrace,
		"DEBUG":   LogLevelDebug,
		"":        LogLevelInfo,
		"warning": LogLevelWarn,
		" error ": LogLevelError,
		"fatal":   LogLevelFatal,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLevelTextBinding(t *testing.T) {
	var opts Options
	require.NoError(t, json.Unmarshal([]byte(`{"level":"debug","format":"json"}`), &opts))
	assert.Equal(t, LogLevelDebug, opts.Level)

	out, err := json.Marshal(Options{Level: LogLevelWarn})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"level":"warn"`)
}

func TestWriterLoggerLevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	factory := NewLoggingBuilder().
		SetMinimumLevel(LogLevelDebug).
		AddWriter(&buf, &TextFormatter{}).
		Build()

	logger := factory.CreateLogger("app").WithFields(Field{Key: "node", Value: 1})
	logger.Trace("hidden")
	logger.Debug("shown", Field{Key: "k", Value: "v"})
	logger.WithCategory("di").Info("scoped")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "DEBUG [app] shown {node=1, k=v}", lines[0])
	assert.Equal(t, "INFO [di] scoped {node=1}", lines[1])
}

func TestFormatterFunc(t *testing.T) {
	var buf bytes.Buffer
	factory := NewLoggingBuilder().
		AddWriter(&buf, FormatterFunc(func(entry *LogEntry) ([]byte, error) {
			return []byte(entry.Level.String() + ":" + entry.Message + "\n"), nil
		})).
		Build()

	factory.CreateLogger("").Warn("careful")
	assert.Equal(t, "WARN:careful\n", buf.String())
}

// 测试 WithFields 不会让兄弟记录器共享字段
func TestWithFieldsDoesNotLeak(t *testing.T) {
	var buf bytes.Buffer
	base := NewLoggingBuilder().AddWriter(&buf, &TextFormatter{}).Build().CreateLogger("")
	parent := base.WithFields(Field{Key: "a", Value: 1})

	parent.WithFields(Field{Key: "b", Value: 2})
	parent.WithFields(Field{Key: "c", Value: 3}).Info("msg")

	assert.Equal(t, "INFO msg {a=1, c=3}\n", buf.String())
}

func TestAsyncWriter(t *testing.T) {
	writer := &lockedBuffer{}
	asyncWriter := NewAsyncWriter(writer, NewTextFormatter(), 2)

	entry := &LogEntry{
		Time:    time.Now(),
		Level:   LogLevelInfo,
		Message: "Async",
	}
	for i := 0; i < 5; i++ {
		asyncWriter.WriteLog(entry)
	}

	require.NoError(t, asyncWriter.Close())
	// 关闭后的写入被丢弃
	asyncWriter.WriteLog(entry)
	require.NoError(t, asyncWriter.Close())

	lines := strings.Split(strings.TrimSpace(writer.String()), "\n")
	assert.Len(t, lines, 5)
}

func TestFileProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	factory := NewLoggingBuilder().
		Configure(Options{Level: LogLevelInfo, Format: FormatJson, File: path, Async: true, BufferSize: 4}).
		Build()

	factory.CreateLogger("file").Info("written", Field{Key: "n", Value: 1})
	require.NoError(t, factory.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &line))
	assert.Equal(t, "written", line["msg"])
	assert.Equal(t, "file", line["category"])
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	assert.NotPanics(t, func() {
		logger.WithCategory("x").WithFields(Field{Key: "a", Value: 1}).Info("ignored")
	})
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *lockedBuffer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *lockedBuffer) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func BenchmarkAsyncLogging(b *testing.B) {
	// 使用 io.Discard 避免 I/O 瓶颈，测试 AsyncWriter 自身的开销
	asyncWriter := NewAsyncWriter(io.Discard, NewTextFormatter(), 10000)
	defer asyncWriter.Close()

	entry := &LogEntry{
		Time:    time.Now(),
		Level:   LogLevelInfo,
		Message: "Benchmark",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		asyncWriter.WriteLog(entry)
	}
}
