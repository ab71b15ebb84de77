package main

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xavierca1/leadscout/internal/config"
	"github.com/xavierca1/leadscout/internal/entity"
	"github.com/xavierca1/leadscout/internal/infra/database"
	"github.com/xavierca1/leadscout/internal/infra/fulfillment"
	"github.com/xavierca1/leadscout/internal/infra/http/handlers"
	"github.com/xavierca1/leadscout/internal/infra/http/middleware"
	"github.com/xavierca1/leadscout/internal/infra/mail"
	"github.com/xavierca1/leadscout/internal/infra/memstore"
	"github.com/xavierca1/leadscout/internal/logger"
	"github.com/xavierca1/leadscout/internal/usecase"
)

// app junta config, logger e repositórios; cada comando monta o resto em cima.
type app struct {
	cfg *config.Config
	log *zap.Logger

	searches  entity.SearchRepository
	leads     entity.LeadRepository
	templates entity.TemplateRepository
	pinger    handlers.Pinger
	closeDB   func() error
}

func newApp(cmd *cobra.Command) (*app, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Level)
	if err != nil {
		return nil, errors.Wrap(err, "init logger")
	}

	return &app{cfg: cfg, log: log, closeDB: func() error { return nil }}, nil
}

// openStores escolhe memória ou SQL e aplica as migrações pendentes.
func (a *app) openStores(ctx context.Context) error {
	if a.cfg.InMemory() {
		a.log.Warn("using in-memory store, nothing survives a restart")
		m := memstore.New()
		a.searches, a.leads, a.templates, a.pinger = m.Searches(), m.Leads(), m.Templates(), m
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

	if _, err := database.Migrate(ctx, db, dialect, a.log); err != nil {
		_ = db.Close()
		return err
	}

	a.searches = database.NewSearchRepository(db, dialect)
	a.leads = database.NewLeadRepository(db, dialect)
	a.templates = database.NewTemplateRepository(db, dialect)
	a.pinger = db
	a.closeDB = db.Close
	return nil
}

// runner é o ciclo de vida com o scraper simulado, cronometrado para o Prometheus.
func (a *app) runner() usecase.SearchRunner {
	scraper := fulfillment.NewMockScraper(a.cfg.Scraper.Delay, a.cfg.Scraper.MinLeads, a.cfg.Scraper.MaxLeads)
	run := usecase.NewRunSearchUseCase(a.searches, a.leads, scraper, logger.Component(a.log, "lifecycle"))
	return middleware.TimeSearchRun(run)
}

// onFinished: métricas sempre, e-mail só com MAIL_HOST configurado.
func (a *app) onFinished() usecase.SearchFinishedFunc {
	observers := []usecase.SearchFinishedFunc{middleware.RecordSearchRun}

	if a.cfg.Mail.Enabled() {
		sender := mail.NewEmailSender(a.cfg.Mail.Host, a.cfg.Mail.Port, a.cfg.Mail.User, a.cfg.Mail.Password, a.cfg.Mail.From)
		notifier := mail.NewSearchNotifier(a.searches, sender, logger.Component(a.log, "mail"))
		observers = append(observers, notifier.Notify)
	}

	return usecase.ObserveAll(observers...)
}

func (a *app) close() {
	if err := a.closeDB(); err != nil {
		a.log.Warn("closing database", zap.Error(err))
	}
	_ = a.log.Sync()
}
