package main

import (
	"database/sql"
	"time"

	consentservice "custodian/internal/consent/service"
	consentstore "custodian/internal/consent/store"
	datarequestservice "custodian/internal/datarequest/service"
	datarequeststore "custodian/internal/datarequest/store"
	recordsstore "custodian/internal/records/store"
	"custodian/internal/retention"
	subjectservice "custodian/internal/subject/service"
	subjectstore "custodian/internal/subject/store"
	audit "custodian/pkg/platform/audit"
	auditmemory "custodian/pkg/platform/audit/store/memory"
	auditpostgres "custodian/pkg/platform/audit/store/postgres"
	"custodian/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

type subjectStore interface {
	subjectservice.Store
	consentservice.SubjectStore
	datarequestservice.SubjectReader
	retention.SubjectStore
}

type consentStore interface {
	consentservice.Store
	subjectservice.ConsentLedger
	datarequestservice.ConsentReader
	retention.ConsentPurger
}

type requestStore interface {
	datarequestservice.Store
	subjectservice.RequestReader
	retention.RequestStore
}

type recordsStore interface {
	subjectservice.RecordsReader
	datarequestservice.RecordsReader
}

// stores groups one backend for every collection plus the transaction
// runner that matches it.
type stores struct {
	subjects subjectStore
	consents consentStore
	requests requestStore
	records  recordsStore
	audit    audit.Store
	tx       tx.Runner
	backend  string
}

func newPostgresStores(db *sql.DB) *stores {
	return &stores{
		subjects: subjectstore.NewPostgres(db),
		consents: consentstore.NewPostgres(db),
		requests: datarequeststore.NewPostgres(db),
		records:  recordsstore.NewPostgres(db),
		audit:    auditpostgres.New(db),
		tx:       tx.NewPostgresRunner(db, defaultTxTimeout),
		backend:  "postgres",
	}
}

// newMemoryStores backs local development without a database. Writes that
// span collections are serialized per subject by the sharded runner.
func newMemoryStores() *stores {
	return &stores{
		subjects: subjectstore.NewInMemory(),
		consents: consentstore.NewInMemory(),
		requests: datarequeststore.NewInMemory(),
		records:  recordsstore.NewInMemory(),
		audit:    auditmemory.NewInMemoryStore(),
		tx:       tx.NewShardedRunner(defaultTxTimeout),
		backend:  "memory",
	}
}
