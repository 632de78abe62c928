package config

import (
	"errors"
	"path/filepath"
)

// StorageConfig 存储配置
//
// 账户设置与余额（badger 后端时）保存在同一个 BadgerDB 中，按键前缀隔离：
//
//	${DataDir}/
//	└── connector.db/
type StorageConfig struct {
	// DataDir 数据目录
	DataDir string `json:"data_dir"`

	// InMemory 使用内存模式，不落盘
	InMemory bool `json:"in_memory"`
}

// DefaultStorageConfig 返回默认存储配置
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		DataDir:  "./data",
		InMemory: true,
	}
}

// Validate 验证存储配置
func (c *StorageConfig) Validate() error {
	if !c.InMemory && c.DataDir == "" {
		return fmtErr("storage", errors.New("data_dir cannot be empty"))
	}
	return nil
}

// DBPath 返回 BadgerDB 数据库路径
func (c *StorageConfig) DBPath() string {
	return filepath.Join(c.DataDir, "connector.db")
}
