package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"flash_chat_server/internal/config"
	"flash_chat_server/internal/dao/localcache"
	dao "flash_chat_server/internal/dao/mysql"
	myredis "flash_chat_server/internal/dao/redis"
	"flash_chat_server/internal/dao/store"
	"flash_chat_server/internal/handler"
	"flash_chat_server/internal/https_server"
	"flash_chat_server/internal/infrastructure/ai"
	"flash_chat_server/internal/infrastructure/logger"
	"flash_chat_server/internal/service"
	"flash_chat_server/internal/service/chat"
	"flash_chat_server/pkg/util/jwt"
	"flash_chat_server/pkg/util/snowflake"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动聊天节点的 HTTP/WebSocket 服务",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}

	// 1. 加载配置
	conf, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	config.SetConfig(conf)

	// 2. 初始化日志
	if err := logger.Init(&conf.LogConfig, "dev"); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer func() { _ = zap.L().Sync() }()
	zap.L().Info("日志初始化成功", zap.String("node", conf.MainConfig.NodeName))

	// 3. JWT / 雪花 ID / 参数校验翻译
	jwt.Init(conf.JWTConfig.Secret, conf.JWTConfig.AccessTokenExpiry)
	snowflake.Init()
	if err := handler.InitTrans("zh"); err != nil {
		return fmt.Errorf("init validator translator: %w", err)
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. 按模式创建外部连接
	rdb, db, err := openBackends(ctx, conf)
	if err != nil {
		return err
	}
	defer closeBackends(rdb, db)

	// 5. 复制存储
	st, err := store.New(conf, store.Backends{Redis: rdb, DB: db})
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			zap.L().Warn("关闭复制存储失败", zap.Error(err))
		}
	}()
	zap.L().Info("复制存储初始化成功", zap.String("mode", conf.StoreConfig.Mode))

	// 6. 本地缓存槽位
	var cache myredis.CacheService
	if rdb != nil {
		cache = myredis.NewRedisCache(rdb)
	}
	slot, closeSlot, err := localcache.New(conf, cache)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeSlot(); err != nil {
			zap.L().Warn("关闭本地缓存失败", zap.Error(err))
		}
	}()

	// 7. 机器人回复；不可用时机器人使用兜底文案
	replier, err := ai.New(ctx, conf.AIConfig)
	if err != nil {
		zap.L().Warn("回复服务不可用，机器人将使用兜底回复", zap.Error(err))
		replier = nil
	}

	// 8. 聊天节点核心
	client := chat.NewClient(st, slot, replier, chat.Options{SystemPassword: conf.SystemConfig.Password})
	if u, err := client.Restore(ctx); err != nil {
		zap.L().Warn("恢复登录状态失败", zap.Error(err))
	} else if u != nil {
		zap.L().Info("已恢复登录状态", zap.String("userId", u.ID))
	}
	if err := client.Start(ctx); err != nil {
		client.Close()
		return err
	}
	defer client.Close()

	// 9. HTTP 服务
	svc := service.NewServices(client)
	handlers := handler.NewHandlers(svc)
	defer handlers.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port),
		Handler:           https_server.Init(handlers, svc.User.CurrentUserID, conf),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zap.L().Info("HTTP 服务启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("关闭服务器...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// WebSocket 是被劫持的连接，Shutdown 不会等待它们
		handlers.Close()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	zap.L().Info("服务器已关闭")
	return err
}

// openBackends 只创建当前模式用得到的连接
func openBackends(ctx context.Context, conf *config.Config) (*redis.Client, *gorm.DB, error) {
	var (
		rdb *redis.Client
		db  *gorm.DB
		err error
	)
	if conf.StoreConfig.Mode == store.ModeRedis || conf.CacheConfig.Mode == localcache.ModeRedis {
		if rdb, err = myredis.NewClient(ctx, conf.RedisConfig); err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		zap.L().Info("Redis 初始化成功")
	}
	if conf.StoreConfig.Mode == store.ModeMysql {
		if db, err = dao.Open(conf.MysqlConfig); err != nil {
			closeBackends(rdb, nil)
			return nil, nil, fmt.Errorf("connect mysql: %w", err)
		}
		zap.L().Info("数据库初始化成功")
	}
	return rdb, db, nil
}

func closeBackends(rdb *redis.Client, db *gorm.DB) {
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			zap.L().Warn("关闭 Redis 失败", zap.Error(err))
		}
	}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
