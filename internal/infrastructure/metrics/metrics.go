// Package metrics 定义节点的 Prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 消息种类标签
const (
	KindDirect   = "direct"    // 普通单聊
	KindSupport  = "support"   // 写给官方账号的客服消息
	KindBotReply = "bot_reply" // 机器人回复
)

var (
	// MessagesSent 本节点写入存储的消息数
	MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flash",
		Name:      "messages_sent_total",
		Help:      "Messages written to the replicated store by this node.",
	}, []string{"kind"})

	// BotReplyFailures 回复生成失败（已降级为兜底文案）的次数
	BotReplyFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "flash",
		Name:      "bot_reply_failures_total",
		Help:      "Bot reply generations that fell back to the fixed text.",
	})

	// StoreWriteFailures 写存储失败次数
	StoreWriteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flash",
		Name:      "store_write_failures_total",
		Help:      "Failed puts against the replicated store.",
	}, []string{"collection"})

	// RecordsDropped 在存储边界因格式不合法被丢弃的记录数
	RecordsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flash",
		Name:      "records_dropped_total",
		Help:      "Malformed records dropped at the store boundary.",
	}, []string{"collection"})

	// ProjectionSize 本地投影（用户目录、消息日志）的条目数
	ProjectionSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "flash",
		Name:      "projection_entries",
		Help:      "Entries held in the in-memory directory and message log.",
	}, []string{"collection"})
)
