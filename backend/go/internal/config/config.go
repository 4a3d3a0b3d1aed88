package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// ServerConfig 定义了 HTTP 服务的配置。
type ServerConfig struct {
	Address string `yaml:"address"` // 监听地址 (例如: ":8084")
}

// MongoConfig 定义了 MongoDB 数据库的连接配置。
type MongoConfig struct {
	Address  string `yaml:"address"`  // MongoDB 服务器地址
	Username string `yaml:"username"` // 用户名
	Password string `yaml:"password"` // 密码
	Database string `yaml:"database"` // 数据库名称
}

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`  // 是否启用 Redis 缓存
	Address  string `yaml:"address"`  // Redis 服务器地址 (例如: "localhost:6379")
	Password string `yaml:"password"` // Redis 密码
	DB       int    `yaml:"db"`       // Redis 数据库编号
}

// KafkaConfig 定义了 Kafka 消息队列的连接配置。
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"` // Kafka Broker 地址列表
	Topic   string   `yaml:"topic"`   // 会话消息主题
	GroupID string   `yaml:"groupID"` // 消费者组 ID
}

// DatabaseConfigs 包含所有数据存储的配置。
type DatabaseConfigs struct {
	MongoDB MongoConfig `yaml:"mongodb"` // MongoDB 数据库配置
	Redis   RedisConfig `yaml:"redis"`   // Redis 缓存配置
	Kafka   KafkaConfig `yaml:"kafka"`   // Kafka 消息队列配置
}

// GeminiConfig 包含了 Gemini 模型的配置。
type GeminiConfig struct {
	APIKey string `yaml:"apiKey"` // Gemini API 密钥
	Model  string `yaml:"model"`  // Gemini 模型名称
}

// OpenAIConfig 包含了 OpenAI 模型的配置。
type OpenAIConfig struct {
	APIKey string `yaml:"apiKey"` // OpenAI API 密钥
	Model  string `yaml:"model"`  // OpenAI 模型名称
}

// OllamaConfig 包含了 Ollama 本地模型的配置。
type OllamaConfig struct {
	BaseURL string `yaml:"baseURL"` // Ollama 服务地址
	Model   string `yaml:"model"`   // Ollama 模型名称
}

// LLMConfig 包含了不同 LLM 提供商的配置。
type LLMConfig struct {
	Provider string       `yaml:"provider"` // LLM 提供商 (例如: "gemini", "openai", "ollama")
	Gemini   GeminiConfig `yaml:"gemini"`   // Gemini 模型配置
	OpenAI   OpenAIConfig `yaml:"openai"`   // OpenAI 模型配置
	Ollama   OllamaConfig `yaml:"ollama"`   // Ollama 模型配置
}

// MemoryConfig 定义了记忆管线的调优参数。
type MemoryConfig struct {
	Storage        string `yaml:"storage"`        // 存储后端, "mongo" 或 "memory" (本地开发)
	Collection     string `yaml:"collection"`     // MongoDB 集合名称
	ExtractTimeout string `yaml:"extractTimeout"` // 实体提取调用的超时时间 (例如: "30s")
	ResolveTimeout string `yaml:"resolveTimeout"` // 事实归并调用的超时时间
	ApplyTimeout   string `yaml:"applyTimeout"`   // 单个类别持久化的超时时间
	CacheTTL       string `yaml:"cacheTTL"`       // 活跃事实缓存的过期时间
	CacheSize      int    `yaml:"cacheSize"`      // 本地缓存的最大用户数
}

// RateLimiterConfig 定义了 API 限流器的配置。
type RateLimiterConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Rate     float64 `yaml:"rate"`     // 每秒生成的令牌数
	Capacity int     `yaml:"capacity"` // 令牌桶容量 (突发大小)
}

// CircuitBreakerConfig 定义了外部协作方调用的熔断配置。
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"` // 连续失败多少次后熔断
	SuccessThreshold uint32 `yaml:"successThreshold"` // 半开状态下连续成功多少次后恢复
	Cooldown         string `yaml:"cooldown"`         // 熔断后的冷却时间 (例如: "30s")
}

// MiddlewareConfig 包含所有中间件的配置。
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// AppConfig 是整个 YAML 文件的根结构。
type AppConfig struct {
	App        AppInfo          `yaml:"app"`        // 应用程序信息
	Logger     LoggerConfig     `yaml:"logger"`     // 日志记录器配置
	Server     ServerConfig     `yaml:"server"`     // HTTP 服务配置
	Databases  DatabaseConfigs  `yaml:"databases"`  // 数据存储配置
	LLM        LLMConfig        `yaml:"llm"`        // LLM 配置
	Memory     MemoryConfig     `yaml:"memory"`     // 记忆管线配置
	Middleware MiddlewareConfig `yaml:"middleware"` // 中间件配置
}

// LoadConfig 读取并解析指定路径的 YAML 配置文件。
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults 为未设置的可选项填充默认值。
func (c *AppConfig) applyDefaults() {
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Server.Address == "" {
		c.Server.Address = ":8084"
	}
	if c.Memory.Storage == "" {
		c.Memory.Storage = "mongo"
	}
	if c.Memory.Collection == "" {
		c.Memory.Collection = "facts"
	}
	if c.Memory.ExtractTimeout == "" {
		c.Memory.ExtractTimeout = "30s"
	}
	if c.Memory.ResolveTimeout == "" {
		c.Memory.ResolveTimeout = "20s"
	}
	if c.Memory.ApplyTimeout == "" {
		c.Memory.ApplyTimeout = "10s"
	}
	if c.Memory.CacheTTL == "" {
		c.Memory.CacheTTL = "5m"
	}
	if c.Memory.CacheSize == 0 {
		c.Memory.CacheSize = 1024
	}
	if c.Databases.Kafka.GroupID == "" {
		c.Databases.Kafka.GroupID = "memory-service"
	}
}

// ParseDuration 解析配置中的时间字符串，解析失败时返回给定的默认值。
func ParseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
