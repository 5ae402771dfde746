// Package websocket 管理前端的 WebSocket 长连接
// 连接只用于向前端推送状态变化事件；前端收到后重新拉取对应的视图
package websocket

import (
	"net/http"
	"sync"
	"time"

	"flash_chat_server/pkg/constants"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	// 前后端分离部署时允许跨域握手
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client 一条前端连接
type Client struct {
	Conn     *websocket.Conn
	Uuid     string      // 连接所属用户 ID
	SendBack chan []byte // 待推送给前端的消息
	once     sync.Once
}

// Hub 在线连接表
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// NewHub 创建连接表
func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

// Count 在线连接数
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast 推送给所有连接；某个连接的缓冲区满了就丢弃这条，不阻塞调用方
func (h *Hub) Broadcast(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.SendBack <- payload:
		default:
			zap.L().Warn("ws 发送缓冲区已满，丢弃事件", zap.String("userId", c.Uuid))
		}
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.SendBack)
	}
	h.mu.Unlock()
}

// CloseAll 关闭所有连接（停机时）
func (h *Hub) CloseAll() {
	h.closeWhere(func(*Client) bool { return true })
}

// CloseExcept 关闭不属于 userId 的连接；userId 为空时全部关闭（登出或切换用户时）
func (h *Hub) CloseExcept(userId string) {
	h.closeWhere(func(c *Client) bool { return userId == "" || c.Uuid != userId })
}

func (h *Hub) closeWhere(match func(*Client) bool) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		if match(c) {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range clients {
		c.close()
	}
}

func (c *Client) close() {
	c.once.Do(func() {
		if err := c.Conn.Close(); err != nil {
			zap.L().Debug("ws close", zap.Error(err))
		}
	})
}

// Serve 升级连接并阻塞到连接断开
// 读协程只处理 pong 和关闭帧，写协程负责推送和心跳
func (h *Hub) Serve(c *gin.Context, userId string) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Error("ws upgrade failed", zap.Error(err))
		return
	}
	client := &Client{
		Conn:     conn,
		Uuid:     userId,
		SendBack: make(chan []byte, constants.CHANNEL_SIZE),
	}
	h.register(client)
	zap.L().Info("ws连接成功", zap.String("userId", userId))

	done := make(chan struct{})
	go func() {
		defer close(done)
		client.write()
	}()
	client.read()

	h.unregister(client)
	<-done
	client.close()
}

func (c *Client) read() {
	c.Conn.SetReadLimit(512)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Warn("ws read error", zap.String("userId", c.Uuid), zap.Error(err))
			}
			return
		}
	}
}

func (c *Client) write() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case payload, ok := <-c.SendBack:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				zap.L().Error("ws write error", zap.String("userId", c.Uuid), zap.Error(err))
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}
