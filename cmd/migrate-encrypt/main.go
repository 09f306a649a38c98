// Command migrate-encrypt encrypts sensitive subject fields that were stored
// before field encryption was introduced. Values that already carry the
// ciphertext shape are only flagged.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"custodian/internal/cipher"
	consentstore "custodian/internal/consent/store"
	datarequeststore "custodian/internal/datarequest/store"
	"custodian/internal/platform/config"
	"custodian/internal/platform/logger"
	"custodian/internal/platform/postgres"
	recordsstore "custodian/internal/records/store"
	"custodian/internal/retention"
	subjectservice "custodian/internal/subject/service"
	subjectstore "custodian/internal/subject/store"
	"custodian/pkg/domain"
	"custodian/pkg/platform/audit/publisher"
	auditpostgres "custodian/pkg/platform/audit/store/postgres"
	"custodian/pkg/platform/tx"
	"custodian/pkg/requestcontext"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "report what would change without writing")
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
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "config: DATABASE_URL is required")
		os.Exit(1)
	}

	log := logger.New(cfg.Env, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.Options{MaxOpenConns: 4})
	if err != nil {
		log.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	fieldCipher, err := cipher.NewAESGCM(cfg.EncryptionKey, cipher.WithLegacySecrets(cfg.EncryptionLegacyKeys...))
	if err != nil {
		log.Error("init field cipher", "error", err)
		os.Exit(1)
	}

	subjects := subjectstore.NewPostgres(db)
	consents := consentstore.NewPostgres(db)
	requests := datarequeststore.NewPostgres(db)
	auditPublisher := publisher.NewPublisher(auditpostgres.New(db), publisher.WithLogger(log))
	runner := tx.NewPostgresRunner(db, 0)

	svc := subjectservice.New(subjectservice.Deps{
		Subjects:  subjects,
		Consents:  consents,
		Requests:  requests,
		Records:   recordsstore.NewPostgres(db),
		Lifecycle: retention.New(subjects, requests, consents, auditPublisher, retention.WithTx(runner), retention.WithLogger(log)),
		Cipher:    fieldCipher,
		Audit:     auditPublisher,
	}, subjectservice.WithTx(runner), subjectservice.WithLogger(log))

	ctx = requestcontext.WithActor(ctx, domain.System)
	result, err := svc.MigrateLegacyFields(ctx, *dryRun)
	if err != nil {
		log.Error("legacy field migration aborted", "error", err)
		os.Exit(1)
	}
	log.Info("legacy field migration finished",
		"dry_run", *dryRun,
		"scanned", result.Scanned,
		"flagged", result.Flagged,
		"encrypted", result.Encrypted,
		"failed", result.Failed,
	)
	if result.Failed > 0 {
		os.Exit(2)
	}
}
