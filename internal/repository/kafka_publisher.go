package repository

import (
	"context"

	"github.com/Abdr007/prism-ai-sub001/internal/domain/models"
	domrepo "github.com/Abdr007/prism-ai-sub001/internal/domain/repository"
	pkgkafka "github.com/Abdr007/prism-ai-sub001/pkg/kafka"
)

// KafkaRiskPublisher implements RiskPublisher on Kafka. Risk results and
// anomaly events go to separate topics, both keyed by symbol so consumers
// see per-symbol ordering.
type KafkaRiskPublisher struct {
	producer     *pkgkafka.Producer
	riskTopic    string
	anomalyTopic string
}

// NewKafkaRiskPublisher creates the Kafka-backed risk publisher.
func NewKafkaRiskPublisher(producer *pkgkafka.Producer, riskTopic, anomalyTopic string) domrepo.RiskPublisher {
	return &KafkaRiskPublisher{
		producer:     producer,
		riskTopic:    riskTopic,
		anomalyTopic: anomalyTopic,
	}
}

func (p *KafkaRiskPublisher) PublishRisk(ctx context.Context, r *models.CascadeRisk) error {
	return p.producer.Publish(ctx, p.riskTopic, []byte(r.Symbol), r)
}

func (p *KafkaRiskPublisher) PublishRiskBatch(ctx context.Context, risks []*models.CascadeRisk) error {
	if len(risks) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(risks))
	for i, r := range risks {
		msgs[i] = pkgkafka.Message{Key: []byte(r.Symbol), Value: r}
	}
	return p.producer.PublishBatch(ctx, p.riskTopic, msgs)
}

func (p *KafkaRiskPublisher) PublishAnomaly(ctx context.Context, ev *models.AnomalyEvent) error {
	return p.producer.Publish(ctx, p.anomalyTopic, []byte(ev.Symbol), ev)
}

func (p *KafkaRiskPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
