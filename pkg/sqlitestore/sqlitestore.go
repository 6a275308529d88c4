// Package sqlitestore is a concrete FunctionRepository/TriggerRepository
// adapter over an embedded sqlite database. It is an external collaborator
// satisfying the narrow repository contracts the core depends on; the core
// itself never imports this package.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mattn/go-sqlite3"

	"github.com/fluorfn/runtime/pkg/function"
)

const schema = `
CREATE TABLE IF NOT EXISTS functions (
	name        TEXT PRIMARY KEY,
	language    TEXT NOT NULL DEFAULT '',
	path        TEXT NOT NULL,
	cpu_hint    TEXT NOT NULL DEFAULT '',
	memory_hint TEXT NOT NULL DEFAULT '',
	readonly    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS triggers (
	name          TEXT PRIMARY KEY,
	method        TEXT NOT NULL,
	path          TEXT NOT NULL,
	function_name TEXT NOT NULL,
	readonly      INTEGER NOT NULL DEFAULT 0
);
`

// Store holds the shared *sql.DB for both repository adapters.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) a sqlite database at dsn and ensures the
// schema exists.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, function.Wrap(function.KindInternal, "sqlitestore.Open", "open database", err)
	}
	db.SetMaxOpenConns(1) // sqlite's single-writer model

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, function.Wrap(function.KindInternal, "sqlitestore.Open", "apply schema", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Functions returns a FunctionRepository backed by this store.
func (s *Store) Functions() *FunctionRepository {
	return &FunctionRepository{db: s.db}
}

// Triggers returns a TriggerRepository backed by this store.
func (s *Store) Triggers() *TriggerRepository {
	return &TriggerRepository{db: s.db}
}

// isUniqueViolation reports whether err is a sqlite constraint violation
// (any SQLITE_CONSTRAINT code, not only UNIQUE). Inserts run only after
// Validate, so on these tables the constraint such an insert can break is
// the name primary key.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}

type functionRow struct {
	Name       string
	Language   string
	Path       string
	CPUHint    string
	MemoryHint string
	ReadOnly   bool
}

func (r functionRow) toFunction() *function.Function {
	return &function.Function{
		Name:       r.Name,
		Language:   function.Language(r.Language),
		Path:       r.Path,
		CPUHint:    r.CPUHint,
		MemoryHint: r.MemoryHint,
		ReadOnly:   r.ReadOnly,
	}
}

// FunctionRepository is the sqlite-backed function.FunctionRepository.
type FunctionRepository struct {
	db *sql.DB
}

func (r *FunctionRepository) FindAll(ctx context.Context) ([]*function.Function, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, language, path, cpu_hint, memory_hint, readonly FROM functions`)
	if err != nil {
		return nil, function.Wrap(function.KindInternal, "sqlitestore.FunctionRepository.FindAll", "query functions", err)
	}
	defer rows.Close()

	var out []*function.Function
	for rows.Next() {
		var fr functionRow
		if err := rows.Scan(&fr.Name, &fr.Language, &fr.Path, &fr.CPUHint, &fr.MemoryHint, &fr.ReadOnly); err != nil {
			return nil, function.Wrap(function.KindInternal, "sqlitestore.FunctionRepository.FindAll", "scan row", err)
		}
		out = append(out, fr.toFunction())
	}
	return out, rows.Err()
}

func (r *FunctionRepository) FindByName(ctx context.Context, name string) (*function.Function, error) {
	var fr functionRow
	row := r.db.QueryRowContext(ctx,
		`SELECT name, language, path, cpu_hint, memory_hint, readonly FROM functions WHERE name = ?`, name)
	if err := row.Scan(&fr.Name, &fr.Language, &fr.Path, &fr.CPUHint, &fr.MemoryHint, &fr.ReadOnly); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, function.NotFound("sqlitestore.FunctionRepository.FindByName", "function not found: "+name)
		}
		return nil, function.Wrap(function.KindInternal, "sqlitestore.FunctionRepository.FindByName", "scan row", err)
	}
	return fr.toFunction(), nil
}

func (r *FunctionRepository) Save(ctx context.Context, f *function.Function) error {
	if err := f.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO functions (name, language, path, cpu_hint, memory_hint, readonly) VALUES (?, ?, ?, ?, ?, ?)`,
		f.Name, string(f.Language), f.Path, f.CPUHint, f.MemoryHint, f.ReadOnly)
	if err != nil {
		if isUniqueViolation(err) {
			return function.AlreadyExists("sqlitestore.FunctionRepository.Save", "function already exists: "+f.Name)
		}
		return function.Wrap(function.KindInternal, "sqlitestore.FunctionRepository.Save", "insert function", err)
	}
	return nil
}

func (r *FunctionRepository) Update(ctx context.Context, f *function.Function) error {
	if err := f.Validate(); err != nil {
		return err
	}
	existing, err := r.FindByName(ctx, f.Name)
	if err != nil {
		return err
	}
	if existing.ReadOnly {
		return function.Validation("sqlitestore.FunctionRepository.Update", "function is readonly: "+f.Name)
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE functions SET language = ?, path = ?, cpu_hint = ?, memory_hint = ?, readonly = ? WHERE name = ?`,
		string(f.Language), f.Path, f.CPUHint, f.MemoryHint, f.ReadOnly, f.Name)
	if err != nil {
		return function.Wrap(function.KindInternal, "sqlitestore.FunctionRepository.Update", "update function", err)
	}
	return nil
}

func (r *FunctionRepository) Delete(ctx context.Context, name string) error {
	existing, err := r.FindByName(ctx, name)
	if err != nil {
		return err
	}
	if existing.ReadOnly {
		return function.Validation("sqlitestore.FunctionRepository.Delete", "function is readonly: "+name)
	}
	_, err = r.db.ExecContext(ctx, `DELETE FROM functions WHERE name = ?`, name)
	if err != nil {
		return function.Wrap(function.KindInternal, "sqlitestore.FunctionRepository.Delete", "delete function", err)
	}
	return nil
}

type triggerRow struct {
	Name         string
	Method       string
	Path         string
	FunctionName string
	ReadOnly     bool
}

func (r triggerRow) toTrigger() *function.Trigger {
	return &function.Trigger{
		Name:         r.Name,
		Method:       function.NormalizeMethod(r.Method),
		Path:         r.Path,
		FunctionName: r.FunctionName,
		ReadOnly:     r.ReadOnly,
	}
}

// TriggerRepository is the sqlite-backed function.TriggerRepository.
type TriggerRepository struct {
	db *sql.DB
}

func (r *TriggerRepository) FindAll(ctx context.Context) ([]*function.Trigger, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, method, path, function_name, readonly FROM triggers`)
	if err != nil {
		return nil, function.Wrap(function.KindInternal, "sqlitestore.TriggerRepository.FindAll", "query triggers", err)
	}
	defer rows.Close()

	var out []*function.Trigger
	for rows.Next() {
		var tr triggerRow
		if err := rows.Scan(&tr.Name, &tr.Method, &tr.Path, &tr.FunctionName, &tr.ReadOnly); err != nil {
			return nil, function.Wrap(function.KindInternal, "sqlitestore.TriggerRepository.FindAll", "scan row", err)
		}
		out = append(out, tr.toTrigger())
	}
	return out, rows.Err()
}

func (r *TriggerRepository) Save(ctx context.Context, t *function.Trigger) error {
	if err := t.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO triggers (name, method, path, function_name, readonly) VALUES (?, ?, ?, ?, ?)`,
		t.Name, t.Method.String(), t.Path, t.FunctionName, t.ReadOnly)
	if err != nil {
		if isUniqueViolation(err) {
			return function.AlreadyExists("sqlitestore.TriggerRepository.Save", "trigger already exists: "+t.Name)
		}
		return function.Wrap(function.KindInternal, "sqlitestore.TriggerRepository.Save", "insert trigger", err)
	}
	return nil
}

func (r *TriggerRepository) Delete(ctx context.Context, name string) error {
	var readonly bool
	row := r.db.QueryRowContext(ctx, `SELECT readonly FROM triggers WHERE name = ?`, name)
	if err := row.Scan(&readonly); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return function.NotFound("sqlitestore.TriggerRepository.Delete", "trigger not found: "+name)
		}
		return function.Wrap(function.KindInternal, "sqlitestore.TriggerRepository.Delete", "lookup trigger", err)
	}
	if readonly {
		return function.Validation("sqlitestore.TriggerRepository.Delete", "trigger is readonly: "+name)
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM triggers WHERE name = ?`, name)
	if err != nil {
		return function.Wrap(function.KindInternal, "sqlitestore.TriggerRepository.Delete", "delete trigger", err)
	}
	return nil
}

var (
	_ function.FunctionRepository = (*FunctionRepository)(nil)
	_ function.TriggerRepository  = (*TriggerRepository)(nil)
)
