// Package mysql 提供 MySQL 连接的初始化
// mysql 存储模式使用 GORM 将复制存储落在一张追加日志表上
package mysql

import (
	"fmt"

	"flash_chat_server/internal/config"
	"flash_chat_server/internal/model"
	"flash_chat_server/pkg/errorx"

	"go.uber.org/zap"
	mysqldriver "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open 建立数据库连接并迁移 store_record 表
// 执行步骤：
//  1. 构建 DSN（Data Source Name）连接字符串
//  2. 使用 GORM 建立数据库连接
//  3. 执行 AutoMigrate 自动迁移表结构
func Open(conf config.MysqlConfig) (*gorm.DB, error) {
	// 格式：user:password@tcp(host:port)/database?params
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		conf.User,
		conf.Password,
		conf.Host,
		conf.Port,
		conf.DatabaseName,
	)

	db, err := gorm.Open(mysqldriver.Open(dsn), &gorm.Config{
		// 轮询查询很频繁，关闭 GORM 自带的 SQL 日志
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errorx.Wrapf(err, errorx.CodeStoreError, "连接 mysql %s:%d 失败", conf.Host, conf.Port)
	}

	// 不存在则建表，不会删除已有字段或数据
	if err := db.AutoMigrate(&model.StoreRecord{}); err != nil {
		return nil, errorx.Wrap(err, errorx.CodeStoreError, "迁移 store_record 表失败")
	}
	zap.L().Info("MySQL 连接成功", zap.String("database", conf.DatabaseName))
	return db, nil
}
