package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/leadscout/internal/entity"
	"github.com/xavierca1/leadscout/internal/usecase"
)

// Handle acompanha uma execução disparada pelo LocalDispatcher.
type Handle struct {
	SearchID string

	done chan struct{}
	out  *usecase.RunSearchOutput
	err  error
}

// Done fecha quando a execução termina, com sucesso ou não.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait bloqueia até o fim da execução ou até ctx expirar. Expirar ctx não cancela a busca.
func (h *Handle) Wait(ctx context.Context) (*usecase.RunSearchOutput, error) {
	select {
	case <-h.done:
		return h.out, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// LocalDispatcher roda cada SearchJob numa goroutine própria, desacoplada da
// requisição que a disparou. Implementa usecase.SearchDispatcher.
type LocalDispatcher struct {
	Runner     usecase.SearchRunner
	Timeout    time.Duration
	OnFinished usecase.SearchFinishedFunc
	Logger     *zap.Logger

	mu      sync.Mutex
	handles map[string]*Handle
	wg      sync.WaitGroup
}

func NewLocalDispatcher(runner usecase.SearchRunner, timeout time.Duration, logger *zap.Logger) *LocalDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalDispatcher{
		Runner:  runner,
		Timeout: timeout,
		Logger:  logger,
		handles: make(map[string]*Handle),
	}
}

func (d *LocalDispatcher) Dispatch(ctx context.Context, job entity.SearchJob) error {
	_, err := d.Start(ctx, job)
	return err
}

// Start dispara a execução e devolve o Handle para aguardar o resultado.
func (d *LocalDispatcher) Start(ctx context.Context, job entity.SearchJob) (*Handle, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}

	h := &Handle{SearchID: job.SearchID, done: make(chan struct{})}

	d.mu.Lock()
	d.handles[job.SearchID] = h
	d.mu.Unlock()

	runCtx := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run(runCtx, job, h)
	}()

	return h, nil
}

func (d *LocalDispatcher) run(ctx context.Context, job entity.SearchJob, h *Handle) {
	defer close(h.done)
	defer d.forget(h)

	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	h.out, h.err = d.Runner.Execute(ctx, job)
	if h.err != nil {
		d.Logger.Warn("local search run failed",
			zap.String("search_id", job.SearchID), zap.String("code", usecase.ErrorCode(h.err)))
	}

	if d.OnFinished != nil {
		d.OnFinished(context.WithoutCancel(ctx), job, h.out)
	}
}

func (d *LocalDispatcher) forget(h *Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.handles[h.SearchID] == h {
		delete(d.handles, h.SearchID)
	}
}

// Handle devolve a execução em andamento para searchID, se houver.
func (d *LocalDispatcher) Handle(searchID string) (*Handle, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	h, ok := d.handles[searchID]
	return h, ok
}

// Wait aguarda todas as execuções em andamento, usado no shutdown.
func (d *LocalDispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
