// Package model 定义聊天节点的数据模型
// 本文件定义 mysql 存储模式使用的记录表
package model

import "gorm.io/gorm"

// StoreRecord 复制存储的追加日志行
// 每次 put 追加一行，订阅方按自增 ID 顺序拉取，同一 key 以最后一行为准
type StoreRecord struct {
	gorm.Model // 内嵌 GORM 模型，ID 作为订阅游标

	// Collection 集合名（含命名空间前缀），如 "flash_v1_users"
	Collection string `gorm:"column:collection;index;type:varchar(64);not null;comment:集合名"`

	// RecordKey 记录 key（用户 ID / 消息 ID）
	RecordKey string `gorm:"column:record_key;index;type:varchar(64);not null;comment:记录key"`

	// Value JSON 记录
	Value string `gorm:"column:value;type:TEXT;not null;comment:记录内容"`
}

// TableName 指定表名
func (StoreRecord) TableName() string {
	return "store_record"
}
