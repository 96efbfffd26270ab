package boundary

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/phagocyte/substrate/internal/config"
	"github.com/phagocyte/substrate/internal/geometry"
	"github.com/phagocyte/substrate/internal/ids"
	"github.com/phagocyte/substrate/internal/substratetypes"
)

// incomingDocument is the wire shape a producer publishes to the
// documents topic: title/content plus an optional placement.
type incomingDocument struct {
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	PositionX float64 `json:"position_x"`
	PositionY float64 `json:"position_y"`
}

// KafkaIngress consumes documents off a Kafka topic and hands each one
// to a Worker, one reader per topic/group like the teacher's
// messaging.KafkaMessaging, narrowed here to the single consumption
// path this module needs (ingestion), rather than also carrying
// insight/proposal/topology-event publication the teacher's mesh used
// for its consensus layer.
type KafkaIngress struct {
	cfg    *config.Config
	logger *zap.Logger
	worker *Worker
	reader *kafka.Reader
}

// NewKafkaIngress constructs a reader for cfg.KafkaTopicPrefix+".documents"
// under the given consumer group.
func NewKafkaIngress(cfg *config.Config, worker *Worker, groupID string, logger *zap.Logger) *KafkaIngress {
	topic := cfg.KafkaTopicPrefix + ".documents"
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    10e3,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})
	logger.Info("created kafka document reader", zap.String("topic", topic), zap.String("group_id", groupID))
	return &KafkaIngress{cfg: cfg, logger: logger, worker: worker, reader: reader}
}

// Run consumes messages until ctx is cancelled, decoding each as an
// incomingDocument and forwarding it to the Worker. A malformed message
// is logged and skipped rather than stopping the loop, matching the
// teacher's ConsumeMessages behavior of logging and continuing on a
// per-message decode failure.
func (ki *KafkaIngress) Run(ctx context.Context) error {
	defer ki.reader.Close()
	for {
		msg, err := ki.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			ki.logger.Error("failed to read document message", zap.Error(err))
			continue
		}

		var in incomingDocument
		if err := json.Unmarshal(msg.Value, &in); err != nil {
			ki.logger.Error("failed to unmarshal document message", zap.Error(err))
			continue
		}

		doc := substratetypes.Document{
			ID:       ids.NewDocumentID(),
			Title:    in.Title,
			Content:  in.Content,
			Position: geometry.NewPosition(in.PositionX, in.PositionY),
		}
		ki.worker.Ingest(doc)
		ki.logger.Debug("ingested document from kafka", zap.String("title", in.Title))
	}
}

// PublishDocument is a small producer helper for tests and local tools:
// it writes one document onto the ingress topic this adapter reads.
func PublishDocument(ctx context.Context, cfg *config.Config, title, content string, pos geometry.Position) error {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.KafkaBrokers...),
		Topic:    cfg.KafkaTopicPrefix + ".documents",
		Balancer: &kafka.LeastBytes{},
	}
	defer writer.Close()

	data, err := json.Marshal(incomingDocument{Title: title, Content: content, PositionX: pos.X, PositionY: pos.Y})
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	return writer.WriteMessages(ctx, kafka.Message{Key: []byte(title), Value: data})
}
