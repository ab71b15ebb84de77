package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/xavierca1/leadscout/internal/entity"
	"github.com/xavierca1/leadscout/internal/usecase"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	searchesSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "searches_submitted_total",
			Help: "Total number of lead searches accepted for processing",
		},
	)

	searchRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_runs_total",
			Help: "Total number of finished search lifecycle runs",
		},
		[]string{"result"},
	)

	leadsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leads_created_total",
			Help: "Total number of leads persisted by completed searches",
		},
	)

	searchRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "search_run_duration_seconds",
			Help:    "Wall time of search lifecycle runs, including fulfillment",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Metrics rotula as requisições pelo padrão da rota do chi, não pelo path cru,
// para que ids não explodam a cardinalidade.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)
		path := routePattern(r)

		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

func RecordSearchSubmitted() {
	searchesSubmitted.Inc()
}

// RecordSearchRun tem a assinatura de usecase.SearchFinishedFunc.
func RecordSearchRun(_ context.Context, _ entity.SearchJob, out *usecase.RunSearchOutput) {
	if out == nil {
		return
	}
	if out.Succeeded() {
		searchRuns.WithLabelValues("completed").Inc()
		leadsCreated.Add(float64(out.LeadsFound))
		return
	}
	searchRuns.WithLabelValues("failed").Inc()
}

// TimeSearchRun embrulha um SearchRunner medindo a duração de cada execução.
func TimeSearchRun(runner usecase.SearchRunner) usecase.SearchRunner {
	return timedRunner{runner}
}

type timedRunner struct {
	next usecase.SearchRunner
}

func (t timedRunner) Execute(ctx context.Context, job entity.SearchJob) (*usecase.RunSearchOutput, error) {
	start := time.Now()
	defer func() { searchRunDuration.Observe(time.Since(start).Seconds()) }()
	return t.next.Execute(ctx, job)
}
