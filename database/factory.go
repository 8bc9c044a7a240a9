package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"gorm.io/gorm"
)

// Factory 按名称持有数据库连接
type Factory struct {
	dbs map[string]*gorm.DB
	mu  sync.RWMutex
}

// NewFactory 创建数据库工厂
func NewFactory() *Factory {
	return &Factory{
		dbs: make(map[string]*gorm.DB),
	}
}

// Register 打开数据库连接、配置连接池并执行自动迁移
func (f *Factory) Register(opts Options) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.dbs[opts.Name]; exists {
		return fmt.Errorf("database '%s' already registered", opts.Name)
	}

	gormConfig := opts.GormConfig
	if gormConfig == nil {
		gormConfig = &gorm.Config{}
	}
	db, err := gorm.Open(opts.Dialector, gormConfig)
	if err != nil {
		return fmt.Errorf("failed to open database '%s': %w", opts.Name, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB for '%s': %w", opts.Name, err)
	}
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(opts.MaxLifetime)

	if len(opts.AutoMigrate) > 0 {
		if err := db.AutoMigrate(opts.AutoMigrate...); err != nil {
			_ = sqlDB.Close()
			return fmt.Errorf("auto migrate failed for '%s': %w", opts.Name, err)
		}
	}

	f.dbs[opts.Name] = db
	return nil
}

// Get 获取指定名称的连接
func (f *Factory) Get(name string) (*gorm.DB, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	db, exists := f.dbs[name]
	if !exists {
		return nil, fmt.Errorf("database '%s' not found", name)
	}
	return db, nil
}

// Names 返回按名称排序的连接列表
func (f *Factory) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.dbs))
	for name := range f.dbs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Each 按名称顺序遍历所有连接
func (f *Factory) Each(fn func(name string, db *gorm.DB)) {
	for _, name := range f.Names() {
		if db, err := f.Get(name); err == nil {
			fn(name, db)
		}
	}
}

// Ping 检查所有连接
func (f *Factory) Ping(ctx context.Context) error {
	var errs []error
	f.Each(func(name string, db *gorm.DB) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("database '%s': %w", name, err))
		}
	})
	return errors.Join(errs...)
}

// Close 关闭所有连接
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	for name, db := range f.dbs {
		sqlDB, err := db.DB()
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to get sql.DB for '%s': %w", name, err))
			continue
		}
		if err := sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database '%s': %w", name, err))
		}
	}
	f.dbs = make(map[string]*gorm.DB)
	return errors.Join(errs...)
}
