package queue

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/xavierca1/leadscout/internal/entity"
	"github.com/xavierca1/leadscout/internal/usecase"
)

type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// Worker consome SearchJobs e roda o ciclo de vida da busca para cada um.
type Worker struct {
	Channel     Consumer
	Runner      usecase.SearchRunner
	Timeout     time.Duration
	Concurrency int
	OnFinished  usecase.SearchFinishedFunc
	Logger      *zap.Logger
}

func NewWorker(ch Consumer, runner usecase.SearchRunner, timeout time.Duration, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		Channel:     ch,
		Runner:      runner,
		Timeout:     timeout,
		Concurrency: 1,
		Logger:      logger,
	}
}

// Start bloqueia até ctx ser cancelado ou o canal de entregas fechar.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName, // fila
		"",        // consumer
		false,     // auto-ack (manual é mais seguro)
		false,     // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		return errors.Wrap(err, "falha ao registrar consumidor RabbitMQ")
	}

	w.Logger.Info("worker waiting for search jobs",
		zap.String("queue", queueName), zap.Int("concurrency", w.concurrency()))

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-msgs:
					if !ok {
						return
					}
					w.handleDelivery(ctx, d)
				}
			}
		}()
	}
	wg.Wait()

	if ctx.Err() != nil {
		return nil
	}
	return errors.New("delivery channel closed")
}

func (w *Worker) handleDelivery(ctx context.Context, d amqp.Delivery) {
	var job entity.SearchJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		w.Logger.Error("malformed search job, sending to DLQ", zap.Error(err))
		// Mensagem podre. Rejeita sem requeue para não travar a fila.
		w.nack(d)
		return
	}
	if err := job.Validate(); err != nil {
		w.Logger.Error("invalid search job, sending to DLQ", zap.Error(err))
		w.nack(d)
		return
	}

	log := w.Logger.With(zap.String("search_id", job.SearchID))

	// A busca roda desacoplada do cancelamento do consumidor, limitada só pelo timeout.
	runCtx := context.WithoutCancel(ctx)
	if w.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, w.Timeout)
		defer cancel()
	}

	out, err := w.Runner.Execute(runCtx, job)
	if w.OnFinished != nil {
		w.OnFinished(context.WithoutCancel(ctx), job, out)
	}

	if err != nil {
		log.Warn("search run failed, sending to DLQ", zap.String("code", usecase.ErrorCode(err)), zap.Error(err))
		w.nack(d)
		return
	}

	if err := d.Ack(false); err != nil {
		log.Error("ack failed", zap.Error(err))
	}
}

func (w *Worker) nack(d amqp.Delivery) {
	if err := d.Nack(false, false); err != nil {
		w.Logger.Error("nack failed", zap.Error(err))
	}
}

func (w *Worker) concurrency() int {
	if w.Concurrency < 1 {
		return 1
	}
	return w.Concurrency
}
