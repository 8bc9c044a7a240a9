package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// JsonFileSource JSON 文件配置源
type JsonFileSource struct {
	Path     string
	Optional bool
}

func (s *JsonFileSource) Name() string {
	return fmt.Sprintf("JsonFile(%s)", s.Path)
}

func (s *JsonFileSource) Load() (map[string]any, error) {
	data, err := readOptional(s.Path, s.Optional)
	if err != nil || data == nil {
		return make(map[string]any), err
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return result, nil
}

// YamlFileSource YAML 文件配置源
type YamlFileSource struct {
	Path     string
	Optional bool
}

func (s *YamlFileSource) Name() string {
	return fmt.Sprintf("YamlFile(%s)", s.Path)
}

func (s *YamlFileSource) Load() (map[string]any, error) {
	data, err := readOptional(s.Path, s.Optional)
	if err != nil || data == nil {
		return make(map[string]any), err
	}

	var result map[string]any
	if err := yaml.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if result == nil {
		result = make(map[string]any)
	}
	return result, nil
}

func readOptional(path string, optional bool) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// EnvironmentVariableSource 环境变量配置源
//
// 变量名去掉前缀后转为小写，双下划线或单下划线都视为层级分隔符：
// APP_DI__MAXTREEDEPTH=32 → di:maxtreedepth
type EnvironmentVariableSource struct {
	Prefix string
}

func (s *EnvironmentVariableSource) Name() string {
	return fmt.Sprintf("EnvironmentVariables(%s)", s.Prefix)
}

func (s *EnvironmentVariableSource) Load() (map[string]any, error) {
	vars := make(map[string]string)
	for _, env := range os.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}
		vars[key] = value
	}
	return flattenVars(vars, s.Prefix), nil
}

// DotEnvSource .env 文件配置源，键的处理方式与环境变量相同
type DotEnvSource struct {
	Path     string
	Prefix   string
	Optional bool
}

func (s *DotEnvSource) Name() string {
	return fmt.Sprintf("DotEnv(%s)", s.Path)
}

func (s *DotEnvSource) Load() (map[string]any, error) {
	vars, err := godotenv.Read(s.Path)
	if err != nil {
		if s.Optional && errors.Is(err, fs.ErrNotExist) {
			return make(map[string]any), nil
		}
		return nil, fmt.Errorf("failed to read dotenv: %w", err)
	}
	return flattenVars(vars, s.Prefix), nil
}

func flattenVars(vars map[string]string, prefix string) map[string]any {
	result := make(map[string]any)
	for key, value := range vars {
		if prefix != "" {
			if !strings.HasPrefix(key, prefix) {
				continue
			}
			key = strings.TrimPrefix(key, prefix)
		}
		key = strings.ToLower(strings.Trim(key, "_"))
		if key == "" {
			continue
		}
		key = strings.ReplaceAll(key, "__", ":")
		key = strings.ReplaceAll(key, "_", ":")
		setNestedValue(result, key, parseScalar(value))
	}
	return result
}

// InMemorySource 内存配置源
type InMemorySource struct {
	Data map[string]any
}

func (s *InMemorySource) Name() string {
	return "InMemory"
}

func (s *InMemorySource) Load() (map[string]any, error) {
	result := make(map[string]any)
	mergeMaps(result, s.Data)
	return result, nil
}

// parseScalar 把字符串转换为整数、浮点数或布尔值，都不匹配时保持字符串
func parseScalar(s string) any {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

// setNestedValue 按 "a:b:c" 路径设置嵌套值
func setNestedValue(data map[string]any, path string, value any) {
	parts := strings.Split(path, ":")
	current := data

	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			if _, exists := current[part]; exists {
				// 已有标量值，不覆盖
				return
			}
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}

	last := parts[len(parts)-1]
	if m, ok := value.(map[string]any); ok {
		if existing, ok := current[last].(map[string]any); ok {
			mergeMaps(existing, m)
			return
		}
	}
	current[last] = value
}
