// Package config 提供应用程序的配置加载和管理功能
// 使用 TOML 格式的配置文件，支持多路径查找，并可通过 .env / 环境变量覆盖敏感项
package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/BurntSushi/toml" // TOML 配置文件解析库
	"github.com/joho/godotenv"   // .env 文件加载
)

// MainConfig 主配置，包含应用基本信息
type MainConfig struct {
	AppName     string `toml:"appName"`     // 应用名称，用于日志标识等
	Host        string `toml:"host"`        // 服务器监听地址，如 "0.0.0.0"
	Port        int    `toml:"port"`        // 服务器监听端口，如 8000
	NodeName    string `toml:"nodeName"`    // 本节点名称，用于区分 Redis 中的本地缓存槽位
	TLSRedirect bool   `toml:"tlsRedirect"` // 是否开启 HTTP -> HTTPS 重定向
}

// StoreConfig 复制存储配置
type StoreConfig struct {
	Mode         string        `toml:"mode"`         // 存储模式："channel"、"redis"、"kafka" 或 "mysql"
	Namespace    string        `toml:"namespace"`    // 集合名前缀，如 "flash_v1_"
	PollInterval time.Duration `toml:"pollInterval"` // mysql 模式下的轮询间隔（毫秒）
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Host     string `toml:"host"`     // Redis 服务器地址
	Port     int    `toml:"port"`     // Redis 端口，默认 6379
	Password string `toml:"password"` // Redis 密码，无密码留空
	Db       int    `toml:"db"`       // Redis 数据库编号，默认 0
}

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	HostPort string        `toml:"hostPort"` // Kafka 服务器地址，如 "localhost:9092"
	Timeout  time.Duration `toml:"timeout"`  // 写超时（秒）

	ReplicationFactor int `toml:"replicationFactor"` // 集合 topic 的副本数，单机 broker 为 1
}

// MysqlConfig MySQL 数据库连接配置
type MysqlConfig struct {
	Host         string `toml:"host"`         // MySQL 服务器地址
	Port         int    `toml:"port"`         // MySQL 端口，默认 3306
	User         string `toml:"user"`         // 数据库用户名
	Password     string `toml:"password"`     // 数据库密码
	DatabaseName string `toml:"databaseName"` // 数据库名称
}

// CacheConfig 本地缓存（当前登录用户槽位）配置
type CacheConfig struct {
	Mode string `toml:"mode"` // "memory"、"pebble" 或 "redis"
	Path string `toml:"path"` // pebble 数据目录
}

// AIConfig 机器人回复服务配置
type AIConfig struct {
	Provider     string  `toml:"provider"`     // "genai" 或 "ollama"
	APIKey       string  `toml:"apiKey"`       // Gemini API Key，通常由环境变量 API_KEY 提供
	Model        string  `toml:"model"`        // 模型名称
	ServerURL    string  `toml:"serverURL"`    // ollama 服务地址
	Temperature  float64 `toml:"temperature"`  // 采样温度
	TopP         float64 `toml:"topP"`         // top-p 采样
	RatePerMin   int     `toml:"ratePerMin"`   // 每分钟最多调用次数，0 表示不限
	RateBurst    int     `toml:"rateBurst"`    // 突发容量
	AppName      string  `toml:"appName"`      // 人设提示中出现的应用名
	SystemPrompt string  `toml:"systemPrompt"` // 自定义人设提示（%s 为联系人昵称），为空用默认值
}

// SystemConfig 官方系统账号配置
type SystemConfig struct {
	Password string `toml:"password"` // 运营人员登录系统账号的密码，留空则系统账号不可登录
}

// LogConfig 日志配置，使用 lumberjack 进行日志轮转
type LogConfig struct {
	LogPath    string `toml:"logPath"`    // 日志文件存储目录
	FileName   string `toml:"fileName"`   // 日志文件名
	MaxSize    int    `toml:"maxSize"`    // 单个日志文件最大大小（MB）
	MaxBackups int    `toml:"maxBackups"` // 保留旧日志文件的最大个数
	MaxAge     int    `toml:"maxAge"`     // 保留旧日志文件的最大天数
	Level      string `toml:"level"`      // 日志级别：debug, info, warn, error
}

// JWTConfig JWT 认证配置
type JWTConfig struct {
	Secret            string `toml:"secret"`            // JWT 签名密钥，建议 32 字符以上
	AccessTokenExpiry int    `toml:"accessTokenExpiry"` // Access Token 有效期（分钟）
}

// SnowflakeConfig 雪花算法配置
type SnowflakeConfig struct {
	MachineID int64 `toml:"machineId"` // 雪花算法节点 ID，范围 0-1023，多节点部署时每个节点需唯一
}

// Config 应用程序总配置，聚合所有子配置
type Config struct {
	MainConfig      `toml:"mainConfig"`
	StoreConfig     `toml:"storeConfig"`
	RedisConfig     `toml:"redisConfig"`
	KafkaConfig     `toml:"kafkaConfig"`
	MysqlConfig     `toml:"mysqlConfig"`
	CacheConfig     `toml:"cacheConfig"`
	AIConfig        `toml:"aiConfig"`
	SystemConfig    `toml:"systemConfig"`
	LogConfig       `toml:"logConfig"`
	JWTConfig       `toml:"jwtConfig"`
	SnowflakeConfig `toml:"snowflakeConfig"`
}

var (
	config     *Config
	configOnce sync.Once
)

// 候选配置文件路径（优先加载本地配置）
var searchPaths = []string{
	"configs/config_local.toml",
	"configs/config.toml",
	"../../configs/config_local.toml",
	"../../configs/config.toml",
}

// Default 返回填充了默认值的配置，单机 channel 模式即可运行
func Default() *Config {
	return &Config{
		MainConfig:      MainConfig{AppName: "flash_chat_server", Host: "127.0.0.1", Port: 8000, NodeName: "local"},
		StoreConfig:     StoreConfig{Mode: "channel", Namespace: "flash_v1_", PollInterval: 500},
		RedisConfig:     RedisConfig{Host: "127.0.0.1", Port: 6379},
		KafkaConfig:     KafkaConfig{HostPort: "127.0.0.1:9092", Timeout: 1, ReplicationFactor: 1},
		MysqlConfig:     MysqlConfig{Host: "127.0.0.1", Port: 3306, DatabaseName: "flash_chat"},
		CacheConfig:     CacheConfig{Mode: "pebble", Path: "data/local_cache"},
		AIConfig:        AIConfig{Provider: "genai", Model: "gemini-3-flash-preview", Temperature: 0.8, TopP: 0.95, AppName: "Flash"},
		LogConfig:       LogConfig{LogPath: "logs", Level: "info"},
		JWTConfig:       JWTConfig{Secret: "flash-chat-dev-secret", AccessTokenExpiry: 60 * 24},
		SnowflakeConfig: SnowflakeConfig{MachineID: 1},
	}
}

// LoadConfig 加载配置文件
// path 非空时只加载该文件；否则依次尝试候选路径，找到第一个可用的即停止
// 随后加载 .env 并应用环境变量覆盖
func LoadConfig(path string) (*Config, error) {
	conf := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, conf); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
	} else {
		found := false
		for _, p := range searchPaths {
			if _, err := toml.DecodeFile(p, conf); err == nil {
				found = true
				break
			}
		}
		if !found {
			// 使用默认值继续运行
			conf = Default()
		}
	}

	// .env 不存在时忽略
	_ = godotenv.Load()
	applyEnv(conf)
	return conf, nil
}

// applyEnv 使用环境变量覆盖敏感配置
func applyEnv(conf *Config) {
	if v := os.Getenv("FLASH_API_KEY"); v != "" {
		conf.AIConfig.APIKey = v
	} else if v := os.Getenv("API_KEY"); v != "" {
		conf.AIConfig.APIKey = v
	}
	if v := os.Getenv("FLASH_JWT_SECRET"); v != "" {
		conf.JWTConfig.Secret = v
	}
	if v := os.Getenv("FLASH_SYSTEM_PASSWORD"); v != "" {
		conf.SystemConfig.Password = v
	}
}

// SetConfig 设置全局配置实例（在 main 中加载完成后调用）
func SetConfig(c *Config) {
	configOnce.Do(func() {})
	config = c
}

// GetConfig 获取全局配置实例（单例模式）
// 未调用 SetConfig 时会按候选路径自动加载
func GetConfig() *Config {
	configOnce.Do(func() {
		c, err := LoadConfig("")
		if err != nil {
			c = Default()
		}
		config = c
	})
	return config
}
