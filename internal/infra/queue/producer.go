package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/xavierca1/leadscout/internal/entity"
)

type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Producer publica SearchJobs na fila de buscas. Implementa usecase.SearchDispatcher.
type Producer struct {
	Ch     Publisher
	Logger *zap.Logger
}

func NewProducer(ch Publisher, logger *zap.Logger) *Producer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Producer{Ch: ch, Logger: logger}
}

func (p *Producer) Dispatch(ctx context.Context, job entity.SearchJob) error {
	if err := job.Validate(); err != nil {
		return err
	}

	body, err := json.Marshal(job)
	if err != nil {
		return errors.Wrap(err, "erro ao converter payload")
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName, // ex.leadsearch
		RoutingKey,   // k.search
		false,        // Mandatory
		false,        // Immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    job.SearchID,
			Timestamp:    time.Now().UTC(),
			Body:         body,
			DeliveryMode: amqp.Persistent, // Mensagem salva no disco
		},
	)
	if err != nil {
		return errors.Wrapf(err, "falha ao publicar busca %s", job.SearchID)
	}

	p.Logger.Debug("search job published", zap.String("search_id", job.SearchID))
	return nil
}
