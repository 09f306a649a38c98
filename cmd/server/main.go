package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"custodian/internal/cipher"
	consenthandler "custodian/internal/consent/handler"
	consentservice "custodian/internal/consent/service"
	datarequesthandler "custodian/internal/datarequest/handler"
	datarequestservice "custodian/internal/datarequest/service"
	jwttoken "custodian/internal/jwt_token"
	"custodian/internal/notify"
	"custodian/internal/platform/config"
	"custodian/internal/platform/httpserver"
	"custodian/internal/platform/kafka"
	"custodian/internal/platform/logger"
	"custodian/internal/platform/metrics"
	"custodian/internal/platform/postgres"
	platformredis "custodian/internal/platform/redis"
	"custodian/internal/platform/tracing"
	"custodian/internal/retention"
	subjecthandler "custodian/internal/subject/handler"
	subjectservice "custodian/internal/subject/service"
	httptransport "custodian/internal/transport/http"
	"custodian/pkg/platform/audit/forwarder"
	"custodian/pkg/platform/audit/publisher"
	"custodian/pkg/platform/circuit"
)

const (
	shutdownTimeout = 15 * time.Second
	sweepLeaseKey   = "custodian:retention:sweep"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
		}
		os.Exit(1)
	}

	log := logger.New(cfg.Env, cfg.LogLevel)
	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// run wires the dependencies and serves until SIGINT or SIGTERM.
func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting custodian", "config", cfg.LogSummary())

	tp, err := tracing.NewProvider(ctx, tracing.Config{
		ServiceName:  "custodian",
		Environment:  cfg.Env,
		Enabled:      cfg.Tracing.Enabled,
		ExporterType: cfg.Tracing.ExporterType,
		Endpoint:     cfg.Tracing.Endpoint,
		SamplingRate: cfg.Tracing.SamplingRate,
		Insecure:     cfg.Tracing.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer shutdownWith(log, "tracing", tp.Shutdown)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(reg)
	jobMetrics := retention.NewJobMetrics()
	if err := jobMetrics.Register(reg); err != nil {
		return fmt.Errorf("register job metrics: %w", err)
	}

	checks := map[string]httptransport.HealthCheck{}

	st := newMemoryStores()
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.Options{})
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		st = newPostgresStores(db)
		checks["postgres"] = db.PingContext
	}
	log.Info("stores ready", "backend", st.backend)

	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		checks["redis"] = redisClient.Health
	}

	kafkaClient, err := kafka.NewClient(ctx, cfg.KafkaBrokers, "custodian")
	if err != nil {
		return err
	}
	if kafkaClient != nil {
		defer kafkaClient.Close()
		if err := kafka.EnsureTopics(ctx, kafkaClient, log, cfg.AuditTopic, cfg.NotifyTopic); err != nil {
			return err
		}
		checks["kafka"] = kafkaClient.Ping
	}

	fieldCipher, err := cipher.NewAESGCM(cfg.EncryptionKey, cipher.WithLegacySecrets(cfg.EncryptionLegacyKeys...))
	if err != nil {
		return fmt.Errorf("init field cipher: %w", err)
	}

	auditPublisher := newAuditPublisher(cfg, st, kafkaClient, reg, log)
	defer shutdownWith(log, "audit publisher", func(context.Context) error { return auditPublisher.Close() })

	notifier := newNotifier(cfg, kafkaClient, log)
	retentionSvc := retention.New(st.subjects, st.requests, st.consents, auditPublisher,
		retention.WithPolicy(retention.PolicyFromConfig(cfg.Retention)),
		retention.WithTx(st.tx),
		retention.WithNotifier(notifier),
		retention.WithLogger(log),
		retention.WithMetrics(appMetrics),
	)
	subjectSvc := subjectservice.New(subjectservice.Deps{
		Subjects:  st.subjects,
		Consents:  st.consents,
		Requests:  st.requests,
		Records:   st.records,
		Lifecycle: retentionSvc,
		Cipher:    fieldCipher,
		Audit:     auditPublisher,
		Notifier:  notifier,
	}, subjectservice.WithTx(st.tx), subjectservice.WithLogger(log), subjectservice.WithMetrics(appMetrics))
	consentSvc := consentservice.New(st.consents, st.subjects, auditPublisher,
		consentservice.WithTx(st.tx),
		consentservice.WithLogger(log),
		consentservice.WithMetrics(appMetrics),
	)
	dataRequestSvc := datarequestservice.New(st.requests, st.subjects, st.consents, st.records, fieldCipher, auditPublisher,
		datarequestservice.WithLogger(log),
		datarequestservice.WithMetrics(appMetrics),
	)

	runnerOpts := []retention.RunnerOption{
		retention.WithRunnerLogger(log),
		retention.WithJobMetrics(jobMetrics),
	}
	if redisClient != nil {
		runnerOpts = append(runnerOpts, retention.WithLease(platformredis.NewLease(redisClient.Client, sweepLeaseKey, cfg.SweepLeaseTTL)))
	}
	runner := retention.NewRunner(retentionSvc, cfg.SweepInterval, runnerOpts...)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:       log,
		Metrics:      appMetrics,
		Gatherer:     reg,
		Validator:    jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer),
		AdminToken:   cfg.AdminAPIToken,
		Subjects:     subjecthandler.New(subjectSvc, log),
		Consents:     consenthandler.New(consentSvc, log),
		DataRequests: datarequesthandler.New(dataRequestSvc, log),
		Sweeper:      runner,
		HealthChecks: checks,
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if cfg.SweepEnabled {
		g.Go(func() error {
			log.Info("retention sweep scheduled", "interval", cfg.SweepInterval.String(), "leased", redisClient != nil)
			runner.Start(gctx)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newAuditPublisher persists audit events to the configured store and, when
// Kafka is available, forwards them to the audit topic behind a breaker.
func newAuditPublisher(cfg *config.Config, st *stores, client *kgo.Client, reg prometheus.Registerer, log *slog.Logger) *publisher.Publisher {
	opts := []publisher.Option{
		publisher.WithLogger(log),
		publisher.WithMetrics(publisher.NewMetrics(reg)),
	}
	if client != nil {
		opts = append(opts, publisher.WithForwarder(forwarder.NewKafkaForwarder(client, cfg.AuditTopic,
			forwarder.WithBreaker(circuit.New("audit-forwarder")),
			forwarder.WithLogger(log),
		)))
	}
	if cfg.AuditBufferSize > 0 {
		opts = append(opts, publisher.WithAsyncBuffer(cfg.AuditBufferSize))
	}
	if cfg.AuditStrict {
		opts = append(opts, publisher.WithStrict())
	}
	return publisher.NewPublisher(st.audit, opts...)
}

// lifecycleNotifier carries both deletion and consent notifications.
type lifecycleNotifier interface {
	retention.Notifier
	subjectservice.Notifier
}

func newNotifier(cfg *config.Config, client *kgo.Client, log *slog.Logger) lifecycleNotifier {
	if client == nil {
		return notify.NewLogNotifier(log)
	}
	return notify.NewKafkaNotifier(client, cfg.NotifyTopic)
}

func shutdownWith(log *slog.Logger, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Error("shutdown failed", "component", name, "error", err)
	}
}
