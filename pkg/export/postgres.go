package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/raywall/fast-sdb-toolkit/pkg/config"
)

// DB é o subconjunto de *sql.DB usado pelo sink.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Close() error
}

// PostgresSink faz upsert de cada item em uma tabela com os atributos em
// jsonb. A chave é (domain, item_name).
type PostgresSink struct {
	db    DB
	table string
}

func NewPostgresSink(db DB, cfg config.PostgresSinkConf) *PostgresSink {
	return &PostgresSink{db: db, table: cfg.Table}
}

// OpenPostgresSink abre a conexão e garante que a tabela existe.
func OpenPostgresSink(ctx context.Context, cfg config.PostgresSinkConf) (*PostgresSink, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("export: open postgres: %w", err)
	}
	s := NewPostgresSink(db, cfg)
	if err := s.EnsureTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresSink) EnsureTable(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	domain      TEXT NOT NULL,
	item_name   TEXT NOT NULL,
	attributes  JSONB NOT NULL,
	exported_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (domain, item_name)
)`, pq.QuoteIdentifier(s.table))
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("export: create table %s: %w", s.table, err)
	}
	return nil
}

func (s *PostgresSink) upsertSQL() string {
	return fmt.Sprintf(`INSERT INTO %s (domain, item_name, attributes, exported_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (domain, item_name)
DO UPDATE SET attributes = EXCLUDED.attributes, exported_at = EXCLUDED.exported_at`,
		pq.QuoteIdentifier(s.table))
}

func (s *PostgresSink) Write(ctx context.Context, records []Record) error {
	stmt := s.upsertSQL()
	for _, r := range records {
		attrs, err := json.Marshal(r.Attributes)
		if err != nil {
			return fmt.Errorf("export: postgres marshal %s: %w", r.Name, err)
		}
		if _, err := s.db.ExecContext(ctx, stmt, r.Domain, r.Name, string(attrs), r.ExportedAt); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) {
				return fmt.Errorf("export: postgres upsert %s (sqlstate %s): %w", r.Name, pqErr.Code, err)
			}
			return fmt.Errorf("export: postgres upsert %s: %w", r.Name, err)
		}
	}
	return nil
}

func (s *PostgresSink) Close(context.Context) error {
	return s.db.Close()
}
