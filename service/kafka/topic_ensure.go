package kafka

import (
	"errors"
	"fmt"

	"CareGene/logger"

	"github.com/Shopify/sarama"
)

// EnsureTopic creates the message-stream topic if it does not exist.
func EnsureTopic(topic string, partitions int32, replication int16) error {
	admin, err := sarama.NewClusterAdminFromClient(KafkaClient)
	if err != nil {
		return err
	}

	desc, err := admin.DescribeTopics([]string{topic})
	if err == nil && len(desc) == 1 && desc[0].Err == sarama.ErrNoError {
		logger.Infof("[Topic] exists: %s (partitions=%d)", topic, len(desc[0].Partitions))
		return nil
	}

	td := &sarama.TopicDetail{
		NumPartitions:     partitions,
		ReplicationFactor: replication,
		ConfigEntries: map[string]*string{
			"cleanup.policy":                 strPtr("delete"),
			"min.insync.replicas":            strPtr("1"),
			"unclean.leader.election.enable": strPtr("false"),
			"compression.type":               strPtr("producer"),
		},
	}
	if err := admin.CreateTopic(topic, td, false); err != nil {
		var topicErr *sarama.TopicError
		if errors.As(err, &topicErr) && topicErr.Err == sarama.ErrTopicAlreadyExists {
			logger.Infof("[Topic] exists (race): %s", topic)
			return nil
		}
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	logger.Infof("[Topic] created: %s (partitions=%d, rf=%d)", topic, partitions, replication)
	return nil
}

func strPtr(s string) *string { return &s }
