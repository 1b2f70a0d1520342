package source

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/GriffinCanCode/widgetkit/internal/infrastructure/logging"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Column describes one column of a table.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	Primary  bool   `json:"primary"`
}

// Rows is a query result with column order preserved.
type Rows struct {
	Columns []string
	Records []map[string]any
}

// Store serves widget data out of a sqlite database.
type Store struct {
	db     *sql.DB
	logger *logging.Logger

	mu         sync.RWMutex
	restricted map[string][]string
}

// Open opens (or creates) the database at path and applies migrations.
// ":memory:" yields a private in-memory database.
func Open(path string, logger *logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// sqlite allows a single writer; in-memory databases also live per connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{
		db:         db,
		logger:     logger.Named("source"),
		restricted: map[string][]string{"users": {"password_hash"}},
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	s.logger.Info("data store ready", zap.String("path", path))
	return s, nil
}

func (s *Store) migrate() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	defer src.Close()

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	// m.Close would close the shared *sql.DB through the driver.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Restrict hides fields of a table from every query and insert.
func (s *Store) Restrict(table string, fields ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restricted[table] = append(s.restricted[table], fields...)
}

func (s *Store) hidden(table, field string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.restricted[table], field)
}

// Tables lists the user tables.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master
		 WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND name != 'schema_migrations'
		 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// Schema returns the visible columns of table in declaration order.
func (s *Store) Schema(ctx context.Context, table string) ([]Column, error) {
	tables, err := s.Tables(ctx)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(tables, table) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quote(table)))
	if err != nil {
		return nil, fmt.Errorf("table info: %w", err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var (
			cid      int
			name     string
			typ      string
			notNull  int
			defValue sql.NullString
			pk       int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defValue, &pk); err != nil {
			return nil, err
		}
		if s.hidden(table, name) {
			continue
		}
		cols = append(cols, Column{Name: name, Type: typ, Nullable: notNull == 0, Primary: pk > 0})
	}
	return cols, rows.Err()
}

// Run executes q against table and shapes the result per q.Format.
func (s *Store) Run(ctx context.Context, table string, q Query) (any, error) {
	cols, err := s.Schema(ctx, table)
	if err != nil {
		return nil, err
	}
	known := make([]string, len(cols))
	for i, c := range cols {
		known[i] = c.Name
	}

	fields, err := selectFields(known, q)
	if err != nil {
		return nil, err
	}

	if q.Format == FormatSchema {
		visible := make([]Column, 0, len(fields))
		for _, c := range cols {
			if slices.Contains(fields, c.Name) {
				visible = append(visible, c)
			}
		}
		return map[string]any{"data": visible, "count": len(visible)}, nil
	}

	where, args, err := whereClause(known, q.Filters)
	if err != nil {
		return nil, err
	}

	var selects, groups []string
	for _, g := range q.GroupBy {
		if !slices.Contains(known, g.Field) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, g.Field)
		}
		if g.Counts() {
			selects = append(selects, fmt.Sprintf("count(%s) AS count", quote(g.Field)))
		}
		selects = append(selects, quote(g.Field))
		groups = append(groups, quote(g.Field))
	}
	if len(groups) == 0 {
		for _, f := range fields {
			selects = append(selects, quote(f))
		}
	}

	base := fmt.Sprintf("SELECT %s FROM %s%s", strings.Join(selects, ", "), quote(table), where)
	if len(groups) > 0 {
		base += " GROUP BY " + strings.Join(groups, ", ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM ("+base+")", args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count %s: %w", table, err)
	}

	if q.Format == FormatCount {
		return map[string]any{"data": []any{}, "count": total, "total": total}, nil
	}

	stmt := base
	if q.OrderBy != nil {
		order := q.OrderBy.Field
		if !(order == "count" && hasCount(q.GroupBy)) && !slices.Contains(known, order) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, order)
		}
		stmt += " ORDER BY " + quote(order)
		if q.OrderBy.Desc {
			stmt += " DESC"
		}
	}
	switch {
	case q.First:
		stmt += " LIMIT 1"
	case q.Limit > 0:
		stmt += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	result, err := s.query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}

	switch q.Format {
	case FormatDataTables:
		return ToTable(result, total), nil
	case FormatChartJS:
		return ToChart(result, total), nil
	}

	if q.First {
		var first map[string]any
		if len(result.Records) > 0 {
			first = result.Records[0]
		}
		return map[string]any{"data": first, "count": len(result.Records), "total": total}, nil
	}
	return map[string]any{"data": result.Records, "count": len(result.Records), "total": total}, nil
}

// Insert adds a record and returns its row id.
func (s *Store) Insert(ctx context.Context, table string, record map[string]any) (int64, error) {
	if len(record) == 0 {
		return 0, ErrEmptyRecord
	}
	cols, err := s.Schema(ctx, table)
	if err != nil {
		return 0, err
	}
	known := make([]string, len(cols))
	for i, c := range cols {
		known[i] = c.Name
	}

	keys := make([]string, 0, len(record))
	for k := range record {
		if !slices.Contains(known, k) {
			return 0, fmt.Errorf("%w: %s", ErrUnknownField, k)
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)

	names := make([]string, len(keys))
	marks := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		names[i] = quote(k)
		marks[i] = "?"
		args[i] = record[k]
	}

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quote(table), strings.Join(names, ", "), strings.Join(marks, ", ")),
		args...)
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", table, err)
	}
	return res.LastInsertId()
}

// Delete removes the row with the given id and reports whether it existed.
func (s *Store) Delete(ctx context.Context, table string, id int64) (bool, error) {
	if _, err := s.Schema(ctx, table); err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", quote(table)), id)
	if err != nil {
		return false, fmt.Errorf("delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *Store) query(ctx context.Context, stmt string, args ...any) (Rows, error) {
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return Rows{}, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return Rows{}, err
	}

	out := Rows{Columns: cols, Records: []map[string]any{}}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Rows{}, err
		}
		record := make(map[string]any, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				record[c] = string(b)
				continue
			}
			record[c] = values[i]
		}
		out.Records = append(out.Records, record)
	}
	return out, rows.Err()
}

func selectFields(known []string, q Query) ([]string, error) {
	for _, f := range append(slices.Clone(q.Include), q.Exclude...) {
		if !slices.Contains(known, f) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, f)
		}
	}
	base := known
	if len(q.Include) > 0 {
		base = q.Include
	}
	fields := make([]string, 0, len(base))
	for _, f := range base {
		if !slices.Contains(q.Exclude, f) {
			fields = append(fields, f)
		}
	}
	return fields, nil
}

func whereClause(known []string, filters []Filter) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	terms := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))
	for _, f := range filters {
		if !slices.Contains(known, f.Field) {
			return "", nil, fmt.Errorf("%w: %s", ErrUnknownField, f.Field)
		}
		op, ok := operators[f.Op]
		if !ok {
			return "", nil, fmt.Errorf("%w: unknown filter operator %q", ErrBadQuery, f.Op)
		}
		terms = append(terms, fmt.Sprintf("%s %s ?", quote(f.Field), op))
		args = append(args, f.Value)
	}
	return " WHERE " + strings.Join(terms, " AND "), args, nil
}

func hasCount(groups []Group) bool {
	for _, g := range groups {
		if g.Counts() {
			return true
		}
	}
	return false
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
