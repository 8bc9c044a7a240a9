package config

import (
	"sync/atomic"
)

// ValueStore 保存合并后的配置树。读取无锁，重载时整体替换。
type ValueStore struct {
	value atomic.Pointer[map[string]any]
}

func NewValueStore() *ValueStore {
	s := &ValueStore{}
	s.Store(make(map[string]any))
	return s
}

// Load 返回当前配置树，调用方不得修改
func (s *ValueStore) Load() map[string]any {
	if p := s.value.Load(); p != nil {
		return *p
	}
	return nil
}

// Store 原子替换配置树，返回被替换的旧数据
func (s *ValueStore) Store(data map[string]any) map[string]any {
	if old := s.value.Swap(&data); old != nil {
		return *old
	}
	return nil
}
