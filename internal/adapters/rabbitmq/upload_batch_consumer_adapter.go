package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"pricing-service/internal/contextkeys"
	"pricing-service/internal/contracts"
	"pricing-service/internal/core/domain"
	"pricing-service/internal/core/port"
	"pricing-service/internal/core/usecase"
	"pricing-service/pkg/rabbitmq/rabbitmq_common"
	"pricing-service/pkg/rabbitmq/rabbitmq_consumer"
)

// DTO matching the UploadBatchEvent JSON schema.
type UploadBatchEventDTO struct {
	UploadID   string             `json:"upload_id"`
	PropertyID string             `json:"property_id"`
	FileType   string             `json:"file_type"`
	DataMonth  string             `json:"data_month"`
	Rows       []UploadBatchRowDTO `json:"rows"`
}

type UploadBatchRowDTO struct {
	RowIndex int            `json:"row_index"`
	Fields   map[string]any `json:"fields"`
}

// UploadBatchConsumerAdapter listens on the upload batch queue and drives the
// ingestion use case for each consumed event.
type UploadBatchConsumerAdapter struct {
	consumer rabbitmq_consumer.Consumer
	useCase  *usecase.ProcessUploadBatchUseCase
	logger   port.LoggerPort
}

// NewUploadBatchConsumerAdapter creates the adapter and its underlying
// consumer.
func NewUploadBatchConsumerAdapter(
	consumerCfg rabbitmq_consumer.ConsumerConfig,
	connManager *rabbitmq_common.ConnectionManager,
	useCase *usecase.ProcessUploadBatchUseCase,
	logger port.LoggerPort,
) (*UploadBatchConsumerAdapter, error) {
	adapter := &UploadBatchConsumerAdapter{
		useCase: useCase,
		logger:  logger,
	}

	consumer, err := rabbitmq_consumer.NewMessageConsumer(consumerCfg, adapter.handleMessage, connManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create RabbitMQ consumer for upload batches: %w", err)
	}
	adapter.consumer = consumer

	return adapter, nil
}

// handleMessage validates, unmarshals and processes one upload batch event.
// A returned error sends the message through the retry topology.
func (a *UploadBatchConsumerAdapter) handleMessage(ctx context.Context, d amqp.Delivery) error {
	traceID := uuid.New().String()
	msgLogger := a.logger.WithFields(port.Fields{"trace_id": traceID})
	ctx = contextkeys.ContextWithLogger(ctx, msgLogger)
	ctx = contextkeys.ContextWithTraceID(ctx, traceID)

	batch, err := a.unmarshalBatch(d)
	if err != nil {
		msgLogger.Error("Failed to decode upload batch event", err, port.Fields{
			"delivery_tag": d.DeliveryTag,
		})
		return err
	}

	return a.useCase.Execute(ctx, *batch)
}

// unmarshalBatch checks the event against its schema and translates the DTO
// into the domain batch.
func (a *UploadBatchConsumerAdapter) unmarshalBatch(d amqp.Delivery) (*domain.UploadBatch, error) {
	eventType, _ := d.Headers["event-type"].(string)
	eventVersion, _ := d.Headers["event-version"].(string)
	if err := contracts.ValidateEvent(eventType, eventVersion, d.Body); err != nil {
		return nil, fmt.Errorf("message failed schema validation: %w", err)
	}

	var dto UploadBatchEventDTO
	if err := json.Unmarshal(d.Body, &dto); err != nil {
		return nil, fmt.Errorf("failed to unmarshal upload batch event DTO: %w", err)
	}

	uploadID, err := uuid.Parse(dto.UploadID)
	if err != nil {
		return nil, fmt.Errorf("invalid upload_id %q: %w", dto.UploadID, err)
	}
	fileType, err := domain.ParseFileType(dto.FileType)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.UploadRecord, 0, len(dto.Rows))
	for _, r := range dto.Rows {
		rows = append(rows, domain.UploadRecord{
			RowIndex: r.RowIndex,
			Fields:   r.Fields,
		})
	}

	return &domain.UploadBatch{
		UploadID:   uploadID,
		PropertyID: dto.PropertyID,
		FileType:   fileType,
		DataMonth:  dto.DataMonth,
		Rows:       rows,
	}, nil
}

// Start implements EventListenerPort.
func (a *UploadBatchConsumerAdapter) Start(ctx context.Context) error {
	return a.consumer.StartConsuming(ctx)
}

// Close implements EventListenerPort.
func (a *UploadBatchConsumerAdapter) Close() error {
	return a.consumer.Close()
}
