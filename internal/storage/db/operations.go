package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OperationKind identifies what a journal entry records
type OperationKind string

const (
	KindApply   OperationKind = "apply"
	KindUpdate  OperationKind = "update"
	KindBackup  OperationKind = "backup"
	KindCleanup OperationKind = "cleanup"
	KindImport  OperationKind = "import"
)

// Operation is one journal entry
type Operation struct {
	ID         string
	Kind       OperationKind
	Instance   string
	Profile    string
	Applied    int
	Total      int
	Missing    []string
	Failed     []string
	Archive    string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewOperation starts a journal entry stamped with a fresh ID and the current time
func NewOperation(kind OperationKind, instance, profile string) *Operation {
	return &Operation{
		ID:        uuid.NewString(),
		Kind:      kind,
		Instance:  instance,
		Profile:   profile,
		StartedAt: time.Now(),
	}
}

// Succeeded reports whether the run ended without an error or failed items
func (o *Operation) Succeeded() bool {
	return o.Error == "" && len(o.Missing) == 0 && len(o.Failed) == 0
}

// Duration returns how long the run took
func (o *Operation) Duration() time.Duration {
	return o.FinishedAt.Sub(o.StartedAt)
}

// RecordOperation appends a finished operation to the journal. A zero
// FinishedAt is stamped with the current time.
func (d *DB) RecordOperation(op *Operation) error {
	if op.ID == "" {
		op.ID = uuid.NewString()
	}
	if op.StartedAt.IsZero() {
		op.StartedAt = time.Now()
	}
	if op.FinishedAt.IsZero() {
		op.FinishedAt = time.Now()
	}

	missing, err := encodeNames(op.Missing)
	if err != nil {
		return fmt.Errorf("encoding missing names: %w", err)
	}
	failed, err := encodeNames(op.Failed)
	if err != nil {
		return fmt.Errorf("encoding failed names: %w", err)
	}

	_, err = d.Exec(`
		INSERT INTO operations (id, kind, instance, profile, applied, total, missing, failed, archive, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, op.ID, string(op.Kind), op.Instance, op.Profile, op.Applied, op.Total, missing, failed,
		op.Archive, op.Error, op.StartedAt.UnixNano(), op.FinishedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("recording operation: %w", err)
	}
	return nil
}

// ListOperations returns journal entries newest first. An empty instance
// lists every instance; a limit <= 0 returns everything.
func (d *DB) ListOperations(instance string, limit int) ([]Operation, error) {
	query := `
		SELECT id, kind, instance, profile, applied, total, missing, failed, archive, error, started_at, finished_at
		FROM operations`
	var args []any
	if instance != "" {
		query += ` WHERE instance = ?`
		args = append(args, instance)
	}
	query += ` ORDER BY started_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying operations: %w", err)
	}
	defer rows.Close()

	var ops []Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, *op)
	}

	return ops, rows.Err()
}

// GetOperation returns a single journal entry by ID
func (d *DB) GetOperation(id string) (*Operation, error) {
	row := d.QueryRow(`
		SELECT id, kind, instance, profile, applied, total, missing, failed, archive, error, started_at, finished_at
		FROM operations WHERE id = ?
	`, id)

	op, err := scanOperation(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("operation %s not found", id)
	}
	return op, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOperation(s scanner) (*Operation, error) {
	var op Operation
	var kind, missing, failed string
	var started, finished int64

	err := s.Scan(&op.ID, &kind, &op.Instance, &op.Profile, &op.Applied, &op.Total,
		&missing, &failed, &op.Archive, &op.Error, &started, &finished)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning operation: %w", err)
	}

	op.Kind = OperationKind(kind)
	op.StartedAt = time.Unix(0, started)
	op.FinishedAt = time.Unix(0, finished)
	if op.Missing, err = decodeNames(missing); err != nil {
		return nil, fmt.Errorf("decoding missing names of %s: %w", op.ID, err)
	}
	if op.Failed, err = decodeNames(failed); err != nil {
		return nil, fmt.Errorf("decoding failed names of %s: %w", op.ID, err)
	}

	return &op, nil
}

func encodeNames(names []string) (string, error) {
	if len(names) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(names)
	return string(data), err
}

func decodeNames(data string) ([]string, error) {
	var names []string
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, nil
	}
	return names, nil
}
