package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commande-service/internal/domain"
)

// notificationTemplate — текст уведомления о созданной commande.
// Формат фиксирован: его разбирает существующий потребитель очереди.
const notificationTemplate = "Commande créée: %s avec quantité: %d"

// Publisher отправляет уведомления о созданных commandes в брокер.
// Соединение устанавливается на каждый вызов и закрывается после публикации,
// топик объявляется идемпотентно перед отправкой.
type Publisher struct {
	brokers []string
	topic   string
	logger  *log.Entry

	// dial и declare подменяются в тестах (sarama/mocks).
	dial    func(brokers []string, cfg *sarama.Config) (sarama.SyncProducer, error)
	declare func(brokers []string, cfg *sarama.Config, topic string) error
}

// NewPublisher создаёт publisher для заданных брокеров и топика.
func NewPublisher(brokers []string, topic string, logger *log.Entry) *Publisher {
	if logger == nil {
		logger = log.WithField("component", "kafka-publisher")
	}
	return &Publisher{
		brokers: brokers,
		topic:   topic,
		logger:  logger,
		dial:    sarama.NewSyncProducer,
		declare: declareTopic,
	}
}

func newConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Return.Successes = true
	return cfg
}

// NotifyCreated публикует текстовое уведомление о созданной commande.
// Любая ошибка соединения или отправки возвращается вызывающему: решение,
// что с ней делать, принимает сервис.
func (p *Publisher) NotifyCreated(ctx context.Context, order domain.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := newConfig()
	if err := p.declare(p.brokers, cfg, p.topic); err != nil {
		p.logger.WithError(err).WithField("topic", p.topic).Error("failed to declare topic")
		return fmt.Errorf("declare topic: %w", err)
	}

	producer, err := p.dial(p.brokers, cfg)
	if err != nil {
		p.logger.WithError(err).Error("failed to connect to broker")
		return fmt.Errorf("connect broker: %w", err)
	}
	defer func() {
		if closeErr := producer.Close(); closeErr != nil {
			p.logger.WithError(closeErr).Warn("failed to close producer")
		}
	}()

	body := fmt.Sprintf(notificationTemplate, order.Name, order.Quantity)
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(order.ID),
		Value: sarama.StringEncoder(body),
	}

	partition, offset, err := producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).WithFields(log.Fields{
			"topic":       p.topic,
			"commande_id": order.ID,
		}).Error("failed to publish notification")
		return fmt.Errorf("publish notification: %w", err)
	}

	p.logger.WithFields(log.Fields{
		"topic":       p.topic,
		"commande_id": order.ID,
		"partition":   partition,
		"offset":      offset,
	}).Debug("notification published")

	return nil
}

// declareTopic создаёт топик, если его ещё нет. Повторное объявление не
// является ошибкой.
func declareTopic(brokers []string, cfg *sarama.Config, topic string) error {
	admin, err := sarama.NewClusterAdmin(brokers, cfg)
	if err != nil {
		return fmt.Errorf("connect broker admin: %w", err)
	}
	defer func() { _ = admin.Close() }()

	detail := &sarama.TopicDetail{NumPartitions: 1, ReplicationFactor: 1}
	if err := admin.CreateTopic(topic, detail, false); err != nil {
		var topicErr *sarama.TopicError
		if errors.As(err, &topicErr) && topicErr.Err == sarama.ErrTopicAlreadyExists {
			return nil
		}
		return err
	}
	return nil
}

var _ domain.NotificationPublisher = (*Publisher)(nil)
