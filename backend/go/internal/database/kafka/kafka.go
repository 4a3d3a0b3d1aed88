package kafka

import (
	"Mnemos/backend/go/internal/config"
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Client 持有会话消息主题的 reader 以及一个用于管理的连接。
// 实例由调用方显式构造并在关闭时调用 Close，避免包级单例。
type Client struct {
	Reader *kafka.Reader
	Conn   *kafka.Conn
	Config *config.KafkaConfig
}

// Connect 连接到 Kafka 并确保会话消息主题存在。
func Connect(cfg *config.KafkaConfig) (*Client, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("未配置 Kafka brokers")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("未配置 Kafka topic")
	}

	// 1. 建立管理连接。
	conn, err := kafka.Dial("tcp", cfg.Brokers[0])
	if err != nil {
		return nil, fmt.Errorf("kafka 初始化连接失败: %w", err)
	}

	// 2. 如果主题不存在则自动创建。
	partitions, err := conn.ReadPartitions()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("无法读取 Kafka 分区信息: %w", err)
	}
	exists := false
	for _, p := range partitions {
		if p.Topic == cfg.Topic {
			exists = true
			break
		}
	}
	if !exists {
		if err := conn.CreateTopics(kafka.TopicConfig{
			Topic:             cfg.Topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}); err != nil {
			conn.Close()
			return nil, fmt.Errorf("自动创建 Kafka 主题失败: %w", err)
		}
	}

	// 3. 创建消费者 Reader。
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		MinBytes:    10e3, // 10KB
		MaxBytes:    10e6, // 10MB
		MaxAttempts: 10,
		Dialer: &kafka.Dialer{
			Timeout: 10 * time.Second,
		},
	})

	return &Client{Reader: reader, Conn: conn, Config: cfg}, nil
}

// Close 安全地关闭 Kafka 连接。
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Reader != nil {
		if err := c.Reader.Close(); err != nil {
			errs = append(errs, fmt.Errorf("关闭 Kafka reader 失败: %w", err))
		}
	}
	if c.Conn != nil {
		if err := c.Conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("关闭 Kafka 管理连接失败: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("关闭 Kafka 客户端时发生多个错误: %v", errs)
	}
	return nil
}

// HealthCheck 检查 Kafka 连接的健康状况。
func (c *Client) HealthCheck(ctx context.Context) error {
	if c == nil || c.Conn == nil {
		return fmt.Errorf("kafka 客户端未初始化，无法进行健康检查")
	}
	_, err := c.Conn.Controller()
	return err
}
