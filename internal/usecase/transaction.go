package usecase

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Transaction executa as operações em ordem; se uma falhar, as compensações
// das operações anteriores rodam na ordem inversa.
type Transaction struct {
	operations    []Operation
	compensations map[int]Compensation
	logger        *zap.Logger
}

type Operation struct {
	Name string
	Fn   func(context.Context) error
}

type Compensation struct {
	Name string
	Fn   func(context.Context) error
}

func NewTransaction(logger *zap.Logger) *Transaction {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transaction{
		compensations: make(map[int]Compensation),
		logger:        logger,
	}
}

func (t *Transaction) AddOperation(name string, fn func(context.Context) error) {
	t.operations = append(t.operations, Operation{name, fn})
}

// AddCompensation desfaz a última operação adicionada.
func (t *Transaction) AddCompensation(name string, fn func(context.Context) error) {
	if len(t.operations) == 0 {
		return
	}
	t.compensations[len(t.operations)-1] = Compensation{name, fn}
}

func (t *Transaction) Execute(ctx context.Context) error {
	for i, op := range t.operations {
		if err := op.Fn(ctx); err != nil {
			t.rollback(ctx, i)
			return errors.Wrapf(err, "operation '%s' failed (rolled back %d operations)", op.Name, i)
		}
	}
	return nil
}

func (t *Transaction) rollback(ctx context.Context, failedAtIndex int) {
	ctx = context.WithoutCancel(ctx)
	for i := failedAtIndex - 1; i >= 0; i-- {
		comp, ok := t.compensations[i]
		if !ok {
			continue
		}
		if err := comp.Fn(ctx); err != nil {
			t.logger.Warn("compensation failed, inconsistency risk",
				zap.String("compensation", comp.Name), zap.Error(err))
		}
	}
}
