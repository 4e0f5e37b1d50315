package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/okian/vinlookup/internal/domain/model"
	"github.com/okian/vinlookup/pkg/logger"
	"github.com/okian/vinlookup/pkg/metrics"
)

const recordColumns = `vin, manufacturer, model, model_year, body_class, region, country, plant_code, serial, wmi, source, decoded_at`

// PostgresStore persists records in a single PostgreSQL table keyed by VIN.
type PostgresStore struct {
	db    *sql.DB
	table string
	log   logger.Logger

	insertSQL string
	getSQL    string
	removeSQL string
	listSQL   string
	countSQL  string
}

// NewPostgresStore connects with the lib/pq driver and creates the table
// when it is missing.
func NewPostgresStore(ctx context.Context, opts ...Option) (*PostgresStore, error) {
	o := buildOptions(opts)
	if o.dsn == "" {
		return nil, fmt.Errorf("postgres: %w", ErrMissingDSN)
	}
	db, err := sql.Open("postgres", o.dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	s := newPostgresStore(db, o.table, o.logger)
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func newPostgresStore(db *sql.DB, table string, log logger.Logger) *PostgresStore {
	t := pq.QuoteIdentifier(table)
	return &PostgresStore{
		db:    db,
		table: table,
		log:   log,
		insertSQL: `INSERT INTO ` + t + ` (` + recordColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (vin) DO UPDATE SET
				manufacturer = EXCLUDED.manufacturer,
				model = EXCLUDED.model,
				model_year = EXCLUDED.model_year,
				body_class = EXCLUDED.body_class,
				region = EXCLUDED.region,
				country = EXCLUDED.country,
				plant_code = EXCLUDED.plant_code,
				serial = EXCLUDED.serial,
				wmi = EXCLUDED.wmi,
				source = EXCLUDED.source,
				decoded_at = EXCLUDED.decoded_at`,
		getSQL:    `SELECT ` + recordColumns + ` FROM ` + t + ` WHERE vin = $1`,
		removeSQL: `DELETE FROM ` + t + ` WHERE vin = $1`,
		listSQL:   `SELECT ` + recordColumns + ` FROM ` + t + ` ORDER BY vin`,
		countSQL:  `SELECT COUNT(*) FROM ` + t,
	}
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS ` + pq.QuoteIdentifier(s.table) + ` (
		vin          VARCHAR(17) PRIMARY KEY,
		manufacturer TEXT NOT NULL DEFAULT '',
		model        TEXT NOT NULL DEFAULT '',
		model_year   TEXT NOT NULL DEFAULT '',
		body_class   TEXT NOT NULL DEFAULT '',
		region       TEXT NOT NULL DEFAULT '',
		country      TEXT NOT NULL DEFAULT '',
		plant_code   TEXT NOT NULL DEFAULT '',
		serial       TEXT NOT NULL DEFAULT '',
		wmi          TEXT NOT NULL DEFAULT '',
		source       TEXT NOT NULL DEFAULT '',
		decoded_at   TIMESTAMPTZ
	)`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (model.Record, error) {
	var (
		rec       model.Record
		decodedAt sql.NullTime
	)
	err := row.Scan(&rec.VIN, &rec.Manufacturer, &rec.Model, &rec.ModelYear, &rec.BodyClass,
		&rec.Region, &rec.Country, &rec.PlantCode, &rec.Serial, &rec.WMI, &rec.Source, &decodedAt)
	if err != nil {
		return model.Record{}, err
	}
	if decodedAt.Valid {
		rec.DecodedAt = decodedAt.Time.UTC()
	}
	return rec, nil
}

// Insert implements Store.
func (s *PostgresStore) Insert(ctx context.Context, rec model.Record) error {
	defer observe(BackendPostgres, "insert", time.Now())
	var decodedAt sql.NullTime
	if !rec.DecodedAt.IsZero() {
		decodedAt = sql.NullTime{Time: rec.DecodedAt.UTC(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, s.insertSQL, rec.VIN, rec.Manufacturer, rec.Model, rec.ModelYear,
		rec.BodyClass, rec.Region, rec.Country, rec.PlantCode, rec.Serial, rec.WMI, rec.Source, decodedAt)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, vin string) (model.Record, error) {
	defer observe(BackendPostgres, "get", time.Now())
	rec, err := scanRecord(s.db.QueryRowContext(ctx, s.getSQL, vin))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Record{}, ErrNotFound
	}
	if err != nil {
		return model.Record{}, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// Remove implements Store.
func (s *PostgresStore) Remove(ctx context.Context, vin string) error {
	defer observe(BackendPostgres, "remove", time.Now())
	res, err := s.db.ExecContext(ctx, s.removeSQL, vin)
	if err != nil {
		return fmt.Errorf("remove record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove record: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context) ([]model.Record, error) {
	defer observe(BackendPostgres, "list", time.Now())
	rows, err := s.db.QueryContext(ctx, s.listSQL)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	metrics.UpdateStoredRecords(len(out))
	return out, nil
}

// Count implements Store.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	defer observe(BackendPostgres, "count", time.Now())
	var n int
	if err := s.db.QueryRowContext(ctx, s.countSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// Ping implements Store.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	if s.log != nil {
		s.log.Info(context.Background(), "closing postgres store", logger.String("table", s.table))
	}
	return s.db.Close()
}
