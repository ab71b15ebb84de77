package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xavierca1/leadscout/internal/entity"
	"github.com/xavierca1/leadscout/internal/infra/database"
	"github.com/xavierca1/leadscout/internal/infra/http/handlers"
	"github.com/xavierca1/leadscout/internal/infra/queue"
	"github.com/xavierca1/leadscout/internal/infra/worker"
	"github.com/xavierca1/leadscout/internal/logger"
	"github.com/xavierca1/leadscout/internal/usecase"
)

const shutdownTimeout = 15 * time.Second

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the search dispatcher and the stale search sweeper",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			if err := a.openStores(ctx); err != nil {
				return err
			}

			runner := a.runner()
			onFinished := a.onFinished()

			// Com RabbitMQ as buscas vão para a fila; sem ele rodam aqui mesmo.
			var (
				dispatcher usecase.SearchDispatcher
				local      *worker.LocalDispatcher
				health     = handlers.NewHealthHandler(a.pinger, nil, version)
			)
			if a.cfg.RabbitMQ.Enabled {
				rmq, err := queue.NewRabbitMQ(a.cfg.RabbitMQ.User, a.cfg.RabbitMQ.Password, a.cfg.RabbitMQ.Host, a.cfg.RabbitMQ.Port, 0)
				if err != nil {
					return err
				}
				defer rmq.Close()
				dispatcher = queue.NewProducer(rmq.Ch, logger.Component(a.log, "producer"))
				health.RabbitMQ = rmq.Conn
			} else {
				local = worker.NewLocalDispatcher(runner, a.cfg.Search.Timeout, logger.Component(a.log, "dispatcher"))
				local.OnFinished = onFinished
				dispatcher = local
			}

			submit := usecase.NewSubmitSearchUseCase(a.searches, dispatcher, logger.Component(a.log, "submitter"))
			lifecycle := handlers.NewLifecycleHandler(runner, a.searches, a.cfg.Search.Timeout)
			lifecycle.OnFinished = onFinished

			router := newRouter(routes{
				search: handlers.NewSearchHandler(submit, a.searches, a.leads),
				lead:   handlers.NewLeadHandler(a.leads),
				template: handlers.NewTemplateHandler(
					usecase.NewCreateTemplateUseCase(a.templates),
					usecase.NewRunTemplateUseCase(a.templates, submit, logger.Component(a.log, "templates")),
					a.templates,
				),
				lifecycle: lifecycle,
				health:    health,
			}, a.cfg.HTTP.AllowedOrigins)

			srv := &http.Server{
				Addr:              ":" + a.cfg.HTTP.Port,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			sweeper := worker.NewStaleSearchWorker(a.searches, a.cfg.Search.StaleAfter, a.cfg.Search.SweepInterval, logger.Component(a.log, "stale-sweeper"))

			g, gctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				a.log.Info("server listening", zap.String("addr", srv.Addr), zap.String("version", version))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return errors.Wrap(err, "http server")
				}
				return nil
			})

			g.Go(func() error {
				sweeper.Start(gctx)
				return nil
			})

			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()

				err := srv.Shutdown(shutdownCtx)
				if local != nil {
					if werr := local.Wait(shutdownCtx); werr != nil {
						a.log.Warn("searches still running at shutdown", zap.Error(werr))
					}
				}
				a.log.Info("server stopped")
				return err
			})

			return g.Wait()
		},
	}
}

func workerCmd() *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume search jobs from RabbitMQ and run the lifecycle",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if a.cfg.InMemory() {
				return errors.New("worker needs a shared database, database.driver=memory is not supported")
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			if err := a.openStores(ctx); err != nil {
				return err
			}

			rmq, err := queue.NewRabbitMQ(a.cfg.RabbitMQ.User, a.cfg.RabbitMQ.Password, a.cfg.RabbitMQ.Host, a.cfg.RabbitMQ.Port, a.cfg.RabbitMQ.Prefetch)
			if err != nil {
				return err
			}
			defer rmq.Close()

			w := queue.NewWorker(rmq.Ch, a.runner(), a.cfg.Search.Timeout, logger.Component(a.log, "queue-worker"))
			w.Concurrency = a.cfg.RabbitMQ.Concurrency
			w.OnFinished = a.onFinished()

			metrics := &http.Server{Addr: metricsAddr, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return w.Start(gctx, queue.QueueName)
			})
			g.Go(func() error {
				if err := metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return errors.Wrap(err, "metrics server")
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return metrics.Shutdown(shutdownCtx)
			})

			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9091", "address for the /metrics endpoint")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if a.cfg.InMemory() {
				a.log.Info("in-memory store has no schema")
				return nil
			}

			dialect, err := database.ParseDialect(a.cfg.Database.Driver)
			if err != nil {
				return err
			}
			db, err := database.NewDBConnection(dialect, a.cfg.Database.URL)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := database.Migrate(cmd.Context(), db, dialect, a.log)
			if err != nil {
				return err
			}
			a.log.Info("migrations done", zap.Int("applied", applied))
			return nil
		},
	}
}

// searchCmd submete uma busca e espera o resultado, rodando o ciclo de vida no próprio processo.
func searchCmd() *cobra.Command {
	var (
		input    usecase.SubmitSearchInput
		keywords string
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Submit a search from the terminal and print its leads",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			if err := a.openStores(ctx); err != nil {
				return err
			}

			local := worker.NewLocalDispatcher(a.runner(), a.cfg.Search.Timeout, logger.Component(a.log, "dispatcher"))
			local.OnFinished = a.onFinished()

			input.Keywords = entity.ParseKeywords(keywords)
			out, err := usecase.NewSubmitSearchUseCase(a.searches, local, a.log).Execute(ctx, input)
			if err != nil {
				return err
			}

			if h, ok := local.Handle(out.ID); ok {
				if _, err := h.Wait(ctx); err != nil && ctx.Err() != nil {
					return err
				}
			}

			search, err := a.searches.FindByID(ctx, out.ID)
			if err != nil {
				return err
			}
			leads, err := a.leads.ListBySearch(ctx, out.ID)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Search *entity.Search  `json:"search"`
				Leads  []*entity.Lead `json:"leads"`
			}{search, leads})
		},
	}

	f := cmd.Flags()
	f.StringVar(&input.Name, "name", "", "search name")
	f.StringVar(&input.Industry, "industry", "", "industry filter")
	f.StringVar(&input.Location, "location", "", `location, e.g. "Austin, TX"`)
	f.StringVar(&input.CompanySize, "company-size", "", "company size bucket, e.g. 11-50")
	f.StringVar(&keywords, "keywords", "", "comma separated keywords")
	f.IntVar(&input.MaxResults, "max-results", 0, "cap on leads to create")
	f.StringVar(&input.Owner, "owner", entity.SystemOwner, "owner recorded on the search and its leads")

	return cmd
}
