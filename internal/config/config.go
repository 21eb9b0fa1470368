package config

import (
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const defaultConfigPath = "configs/config_local.toml"

type MainConfig struct {
	AppName string `toml:"appName"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
}

type MysqlConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	DatabaseName string `toml:"databaseName"`
}

type LogConfig struct {
	LogPath    string `toml:"logPath"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"maxSizeMB"`
	MaxBackups int    `toml:"maxBackups"`
	MaxAgeDays int    `toml:"maxAgeDays"`
	Console    bool   `toml:"console"`
}

type JwtConfig struct {
	Key         string `toml:"key"`
	ExpireHours int    `toml:"expireHours"`
	Issuer      string `toml:"issuer"`
}

type KafkaConfig struct {
	Brokers        []string `toml:"brokers"`
	ClientID       string   `toml:"clientID"`
	EmailTopic     string   `toml:"emailTopic"`
	Partitions     int32    `toml:"partitions"`
	Replication    int16    `toml:"replication"`
	RetentionHours int      `toml:"retentionHours"`
	CleanupPolicy  string   `toml:"cleanupPolicy"`
}

func (k KafkaConfig) Retention() time.Duration {
	return time.Duration(k.RetentionHours) * time.Hour
}

type RedisConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	Password     string `toml:"password"`
	DB           int    `toml:"db"`
	PoolSize     int    `toml:"poolSize"`
	MinIdleConns int    `toml:"minIdleConns"`
}

// WorkflowConfig 工作流引擎（逾期任务 / 赢单传播）调度参数
type WorkflowConfig struct {
	IntervalMinutes          int  `toml:"intervalMinutes"`
	EscalationThresholdHours int  `toml:"escalationThresholdHours"`
	CallTimeoutSeconds       int  `toml:"callTimeoutSeconds"`
	RunOnStart               bool `toml:"runOnStart"`
	PreventOverlap           bool `toml:"preventOverlap"`
	DistributedLock          bool `toml:"distributedLock"`
	LockTTLSeconds           int  `toml:"lockTTLSeconds"`
}

func (w WorkflowConfig) Interval() time.Duration {
	return time.Duration(w.IntervalMinutes) * time.Minute
}

func (w WorkflowConfig) EscalationThreshold() time.Duration {
	return time.Duration(w.EscalationThresholdHours) * time.Hour
}

func (w WorkflowConfig) CallTimeout() time.Duration {
	return time.Duration(w.CallTimeoutSeconds) * time.Second
}

func (w WorkflowConfig) LockTTL() time.Duration {
	return time.Duration(w.LockTTLSeconds) * time.Second
}

// OutboxConfig 邮件 outbox -> Kafka 中继参数
type OutboxConfig struct {
	BatchSize          int `toml:"batchSize"`
	PollIntervalMillis int `toml:"pollIntervalMillis"`
}

func (o OutboxConfig) PollInterval() time.Duration {
	return time.Duration(o.PollIntervalMillis) * time.Millisecond
}

type SecurityConfig struct {
	SSLRedirect bool `toml:"sslRedirect"`
}

type Config struct {
	MainConfig     `toml:"mainConfig"`
	MysqlConfig    `toml:"mysqlConfig"`
	JwtConfig      `toml:"jwtConfig"`
	KafkaConfig    `toml:"kafkaConfig"`
	LogConfig      `toml:"logConfig"`
	RedisConfig    `toml:"redisConfig"`
	WorkflowConfig `toml:"workflowConfig"`
	OutboxConfig   `toml:"outboxConfig"`
	SecurityConfig `toml:"securityConfig"`
}

var (
	config   *Config
	loadOnce sync.Once
	loadPath = defaultConfigPath
)

// SetPath 在首次 GetConfig 之前指定配置文件路径（命令行 --config）
func SetPath(path string) {
	if strings.TrimSpace(path) != "" {
		loadPath = path
	}
}

// Load 从 toml 文件解析配置，并叠加 .env / 环境变量覆盖与默认值
func Load(path string) (*Config, error) {
	conf := new(Config)
	conf.WorkflowConfig.RunOnStart = true
	if _, err := toml.DecodeFile(path, conf); err != nil {
		conf.applyEnv()
		conf.applyDefaults()
		return conf, err
	}
	conf.applyEnv()
	conf.applyDefaults()
	return conf, nil
}

func GetConfig() *Config {
	loadOnce.Do(func() {
		path := loadPath
		if env := strings.TrimSpace(os.Getenv("CLIENTPULSE_CONFIG")); env != "" {
			path = env
		}
		_ = godotenv.Load()
		conf, err := Load(path)
		if err != nil {
			log.Printf("加载配置文件失败: %v, 使用默认设置", err)
		}
		config = conf
	})
	return config
}

func (c *Config) applyEnv() {
	if v := os.Getenv("MYSQL_PASSWORD"); v != "" {
		c.MysqlConfig.Password = v
	}
	if v := os.Getenv("JWT_KEY"); v != "" {
		c.JwtConfig.Key = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.RedisConfig.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers := make([]string, 0)
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		c.KafkaConfig.Brokers = brokers
	}
}

func (c *Config) applyDefaults() {
	if c.MainConfig.AppName == "" {
		c.MainConfig.AppName = "clientpulse"
	}
	if c.MainConfig.Port == 0 {
		c.MainConfig.Port = 8000
	}
	if c.MysqlConfig.DatabaseName == "" {
		c.MysqlConfig.DatabaseName = c.MainConfig.AppName
	}
	if c.KafkaConfig.EmailTopic == "" {
		c.KafkaConfig.EmailTopic = "clientpulse.email"
	}
	if c.KafkaConfig.ClientID == "" {
		c.KafkaConfig.ClientID = c.MainConfig.AppName
	}
	if c.KafkaConfig.RetentionHours <= 0 {
		c.KafkaConfig.RetentionHours = 7 * 24
	}
	if c.KafkaConfig.CleanupPolicy == "" {
		c.KafkaConfig.CleanupPolicy = "delete"
	}
	if c.WorkflowConfig.IntervalMinutes <= 0 {
		c.WorkflowConfig.IntervalMinutes = 60
	}
	if c.WorkflowConfig.EscalationThresholdHours <= 0 {
		c.WorkflowConfig.EscalationThresholdHours = 24
	}
	if c.WorkflowConfig.CallTimeoutSeconds <= 0 {
		c.WorkflowConfig.CallTimeoutSeconds = 10
	}
	if c.WorkflowConfig.LockTTLSeconds <= 0 {
		c.WorkflowConfig.LockTTLSeconds = 30 * 60
	}
	if c.OutboxConfig.BatchSize <= 0 {
		c.OutboxConfig.BatchSize = 200
	}
	if c.OutboxConfig.PollIntervalMillis <= 0 {
		c.OutboxConfig.PollIntervalMillis = 500
	}
}
