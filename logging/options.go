package logging

// 日志输出格式
const (
	FormatText = "text"
	FormatJson = "json"
)

// Options 日志配置，可从配置节绑定
//
// 示例 (YAML)：
//
//	logging:
//	  level: debug
//	  format: json
//	  console: true
//	  file: logs/app.log
//	  async: true
type Options struct {
	Level           LogLevel `json:"level" yaml:"level"`
	Format          string   `json:"format" yaml:"format"`
	Console         bool     `json:"console" yaml:"console"`
	Color           bool     `json:"color" yaml:"color"`
	TimestampFormat string   `json:"timestampFormat" yaml:"timestampFormat"`
	File            string   `json:"file" yaml:"file"`
	Async           bool     `json:"async" yaml:"async"`
	BufferSize      int      `json:"bufferSize" yaml:"bufferSize"`
}

// DefaultOptions 返回默认配置：INFO 级别，彩色文本输出到控制台
func DefaultOptions() Options {
	return Options{
		Level:           LogLevelInfo,
		Format:          FormatText,
		Console:         true,
		Color:           true,
		TimestampFormat: "2006-01-02 15:04:05",
		BufferSize:      1024,
	}
}
