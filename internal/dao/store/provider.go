package store

import (
	"fmt"
	"time"

	"flash_chat_server/internal/config"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 存储模式
const (
	ModeChannel = "channel"
	ModeRedis   = "redis"
	ModeKafka   = "kafka"
	ModeMysql   = "mysql"
)

// Backends 各模式需要的外部连接，按需由 main 创建并负责关闭
type Backends struct {
	Redis *redis.Client
	DB    *gorm.DB
}

// New 根据 storeConfig.mode 创建复制存储
func New(conf *config.Config, b Backends) (Store, error) {
	ns := conf.StoreConfig.Namespace
	switch conf.StoreConfig.Mode {
	case ModeChannel, "":
		return NewChannelStore(), nil
	case ModeRedis:
		if b.Redis == nil {
			return nil, fmt.Errorf("store mode redis requires a redis client")
		}
		return NewRedisStore(b.Redis, ns), nil
	case ModeKafka:
		return NewKafkaStore(conf.KafkaConfig, ns), nil
	case ModeMysql:
		if b.DB == nil {
			return nil, fmt.Errorf("store mode mysql requires a database connection")
		}
		return NewMysqlStore(b.DB, ns, conf.StoreConfig.PollInterval*time.Millisecond), nil
	default:
		return nil, fmt.Errorf("unknown store mode %q", conf.StoreConfig.Mode)
	}
}
