package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sort"
	"strconv"
	"sync"
	"time"

	"flash_chat_server/internal/config"
	"flash_chat_server/pkg/errorx"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	// 读取失败后的重试间隔
	kafkaRetryBackoff = time.Second
	// put 只等这么久就把批次发出去，默认的 1s 会让每次 put 都卡住
	kafkaBatchTimeout = 5 * time.Millisecond
	// 新建 topic 后 leader 选举完成前元数据可能不可用
	kafkaMetadataRetries = 10
)

// KafkaStore 基于 Kafka 的复制存储
// 每个集合对应一个 topic，由本存储以单分区创建；
// 订阅方为 topic 的每个分区各开一个 Reader，从最早 offset 读起，即"回放 + 跟随"
type KafkaStore struct {
	brokers           []string
	namespace         string
	replicationFactor int
	writer            *kafka.Writer

	topics sync.Map // 已确认存在的 topic

	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewKafkaStore 创建 Kafka 存储，不会立即连接 broker
func NewKafkaStore(conf config.KafkaConfig, namespace string) *KafkaStore {
	timeout := conf.Timeout * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	replicas := conf.ReplicationFactor
	if replicas <= 0 {
		replicas = 1
	}
	return &KafkaStore{
		brokers:           []string{conf.HostPort},
		namespace:         namespace,
		replicationFactor: replicas,
		// Topic 留空，由每条消息自带；topic 由 ensureTopic 创建，不依赖 broker 的自动建 topic
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(conf.HostPort),
			Balancer:               &kafka.Hash{},
			WriteTimeout:           timeout,
			BatchTimeout:           kafkaBatchTimeout,
			RequiredAcks:           kafka.RequireNone,
			AllowAutoTopicCreation: false,
		},
		quit: make(chan struct{}),
	}
}

// Put 写入一条以记录 key 为消息 key 的 Kafka 消息
func (s *KafkaStore) Put(ctx context.Context, collection, key string, value []byte) error {
	topic := collectionName(s.namespace, collection)
	if err := s.ensureTopic(ctx, topic); err != nil {
		return errorx.Wrapf(err, errorx.CodeStoreError, "kafka create topic %s", topic)
	}
	err := s.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		return errorx.Wrapf(err, errorx.CodeStoreError, "kafka put %s/%s", collection, key)
	}
	return nil
}

// Subscribe 为 topic 的每个分区创建独立的 Reader（不加入消费组），从头读取
// topic 若是外部以多分区创建的，每个分区的记录同样会被投递
func (s *KafkaStore) Subscribe(ctx context.Context, collection string, fn EntryHandler) error {
	topic := collectionName(s.namespace, collection)
	if err := s.ensureTopic(ctx, topic); err != nil {
		return errorx.Wrapf(err, errorx.CodeStoreError, "kafka create topic %s", topic)
	}
	ids, err := s.partitions(ctx, topic)
	if err != nil {
		return errorx.Wrapf(err, errorx.CodeStoreError, "kafka subscribe %s", topic)
	}

	readers := make([]*kafka.Reader, 0, len(ids))
	for _, id := range ids {
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:   s.brokers,
			Topic:     topic,
			Partition: id,
			MinBytes:  1,
			MaxBytes:  10e6,
		})
		if err := reader.SetOffset(kafka.FirstOffset); err != nil {
			_ = reader.Close()
			for _, r := range readers {
				_ = r.Close()
			}
			return errorx.Wrapf(err, errorx.CodeStoreError, "kafka subscribe %s[%d]", topic, id)
		}
		readers = append(readers, reader)
	}

	// Close 时也要打断阻塞中的 ReadMessage
	readCtx, cancel := context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		select {
		case <-s.quit:
		case <-readCtx.Done():
		}
	}()

	// 多个分区的回调串行执行，与其他后端一致
	var deliver sync.Mutex
	handle := func(key string, value []byte) {
		deliver.Lock()
		defer deliver.Unlock()
		fn(key, value)
	}
	for _, reader := range readers {
		s.wg.Add(1)
		go func(reader *kafka.Reader) {
			defer s.wg.Done()
			defer reader.Close()
			s.readLoop(readCtx, topic, reader, handle)
		}(reader)
	}
	zap.L().Info("kafka store subscribed", zap.String("topic", topic), zap.Ints("partitions", ids))
	return nil
}

func (s *KafkaStore) readLoop(ctx context.Context, topic string, reader *kafka.Reader, fn EntryHandler) {
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return
			}
			zap.L().Warn("kafka 读取失败，稍后重试",
				zap.String("topic", topic),
				zap.Int("partition", reader.Config().Partition),
				zap.Error(err),
			)
			select {
			case <-time.After(kafkaRetryBackoff):
				continue
			case <-ctx.Done():
				return
			}
		}
		fn(string(msg.Key), msg.Value)
	}
}

// ensureTopic 在 controller 上创建单分区 topic，已存在时忽略
func (s *KafkaStore) ensureTopic(ctx context.Context, topic string) error {
	if _, ok := s.topics.Load(topic); ok {
		return nil
	}
	err := createTopic(ctx, s.brokers[0], kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: s.replicationFactor,
	})
	if err != nil {
		return err
	}
	s.topics.Store(topic, struct{}{})
	return nil
}

// createTopic 连接任意 broker 找到 controller，再由 controller 创建 topic
func createTopic(ctx context.Context, broker string, topic kafka.TopicConfig) error {
	conn, err := kafka.DialContext(ctx, "tcp", broker)
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	ctrl, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return err
	}
	defer ctrl.Close()

	if err := ctrl.CreateTopics(topic); err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return err
	}
	return nil
}

// partitions 读取 topic 的分区列表；刚创建的 topic 可能还没有 leader，稍后重试
func (s *KafkaStore) partitions(ctx context.Context, topic string) ([]int, error) {
	for attempt := 1; ; attempt++ {
		ids, err := readPartitionIDs(ctx, s.brokers[0], topic)
		if err == nil && len(ids) == 0 {
			err = fmt.Errorf("topic %s has no partitions", topic)
		}
		if err == nil {
			return ids, nil
		}
		if attempt >= kafkaMetadataRetries {
			return nil, err
		}
		select {
		case <-time.After(kafkaRetryBackoff / 4):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func readPartitionIDs(ctx context.Context, broker, topic string) ([]int, error) {
	conn, err := kafka.DialContext(ctx, "tcp", broker)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	parts, err := conn.ReadPartitions(topic)
	if err != nil {
		return nil, err
	}
	return partitionIDs(parts, topic), nil
}

// partitionIDs 取出 topic 的分区号，升序
func partitionIDs(parts []kafka.Partition, topic string) []int {
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		if p.Topic == topic {
			ids = append(ids, p.ID)
		}
	}
	sort.Ints(ids)
	return ids
}

// Close 停止订阅并关闭 Writer
func (s *KafkaStore) Close() error {
	s.closeOnce.Do(func() { close(s.quit) })
	s.wg.Wait()
	if err := s.writer.Close(); err != nil {
		return errorx.Wrap(err, errorx.CodeStoreError, "关闭 kafka writer 失败")
	}
	return nil
}

var _ Store = (*KafkaStore)(nil)
