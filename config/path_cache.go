package config

import (
	"strings"
	"sync"
)

// PathCache 缓存键路径的拆分结果。":" 与 "." 都是层级分隔符，空片段会被忽略。
type PathCache struct {
	segments sync.Map
}

// GetPathSegments 返回 path 的片段，首次访问时解析并缓存
func (c *PathCache) GetPathSegments(path string) []string {
	if v, ok := c.segments.Load(path); ok {
		return v.([]string)
	}

	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == ':' || r == '.'
	})
	actual, _ := c.segments.LoadOrStore(path, parts)
	return actual.([]string)
}

var globalPathCache = &PathCache{}
