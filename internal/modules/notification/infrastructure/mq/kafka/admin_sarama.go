package kafka

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ClientPulse/pkg/zlog"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

const (
	defaultEmailRetention = 7 * 24 * time.Hour
	CleanupDelete         = "delete"
	CleanupCompact        = "compact"
)

type TopicAdminConfig struct {
	Brokers  []string
	ClientID string
}

// TopicSpec 邮件 topic 的期望配置；Retention / CleanupPolicy 对已存在的 topic 也会同步
type TopicSpec struct {
	Name              string
	Partitions        int32
	ReplicationFactor int16
	Retention         time.Duration
	CleanupPolicy     string
}

func (s TopicSpec) normalize() (TopicSpec, error) {
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return s, errors.New("kafka topic is empty")
	}
	if s.Partitions <= 0 {
		s.Partitions = 1
	}
	if s.ReplicationFactor <= 0 {
		s.ReplicationFactor = 1
	}
	if s.Retention <= 0 {
		s.Retention = defaultEmailRetention
	}
	policy := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s.CleanupPolicy)), " ", "")
	switch policy {
	case "":
		policy = CleanupDelete
	case CleanupDelete, CleanupCompact, "compact,delete", "delete,compact":
	default:
		return s, fmt.Errorf("unsupported cleanup policy %q", s.CleanupPolicy)
	}
	s.CleanupPolicy = policy
	return s, nil
}

func (s TopicSpec) configEntries() map[string]*string {
	retention := strconv.FormatInt(s.Retention.Milliseconds(), 10)
	policy := s.CleanupPolicy
	return map[string]*string{
		"retention.ms":   &retention,
		"cleanup.policy": &policy,
	}
}

// EnsureTopic 启动时确保邮件 topic 存在并与配置一致
func EnsureTopic(cfg TopicAdminConfig, spec TopicSpec) error {
	if len(cfg.Brokers) == 0 {
		return errors.New("kafka brokers is empty")
	}
	spec, err := spec.normalize()
	if err != nil {
		return err
	}

	sc := sarama.NewConfig()
	sc.Version = sarama.V2_8_0_0
	sc.ClientID = strings.TrimSpace(cfg.ClientID)

	admin, err := sarama.NewClusterAdmin(cfg.Brokers, sc)
	if err != nil {
		return err
	}
	defer admin.Close()
	return ensureTopic(admin, spec)
}

func ensureTopic(admin sarama.ClusterAdmin, spec TopicSpec) error {
	topics, err := admin.ListTopics()
	if err != nil {
		return err
	}
	if _, ok := topics[spec.Name]; ok {
		// 分区数与副本数不在这里调整，只同步保留策略
		if err := admin.AlterConfig(sarama.TopicResource, spec.Name, spec.configEntries(), false); err != nil {
			return fmt.Errorf("alter topic %s config: %w", spec.Name, err)
		}
		zlog.Info("email topic config synced",
			zap.String("topic", spec.Name),
			zap.Duration("retention", spec.Retention),
			zap.String("cleanup_policy", spec.CleanupPolicy))
		return nil
	}

	td := &sarama.TopicDetail{
		NumPartitions:     spec.Partitions,
		ReplicationFactor: spec.ReplicationFactor,
		ConfigEntries:     spec.configEntries(),
	}
	if err := admin.CreateTopic(spec.Name, td, false); err != nil {
		if errors.Is(err, sarama.ErrTopicAlreadyExists) {
			return nil
		}
		return err
	}
	zlog.Info("email topic created",
		zap.String("topic", spec.Name),
		zap.Int32("partitions", spec.Partitions),
		zap.Int16("replication", spec.ReplicationFactor))
	return nil
}
