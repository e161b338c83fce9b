package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/autolot/inventory-sync/internal/inventory"
)

// PostgresConfig controls the connection pool backing both stores.
type PostgresConfig struct {
	DSN             string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

// pgxPool is the subset of pgxpool.Pool the stores use; pgxmock satisfies it.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements VehicleStore and DealerStore on one pool.
//
// Expected schema:
//
//	CREATE TABLE vehicles (
//		id UUID PRIMARY KEY,
//		dealer_id TEXT NOT NULL,
//		vin TEXT NOT NULL,
//		slug TEXT NOT NULL UNIQUE,
//		year INT, make TEXT, model TEXT, trim TEXT,
//		price NUMERIC NOT NULL DEFAULT 0,
//		mileage INT NOT NULL DEFAULT 0,
//		color TEXT, transmission TEXT, body_type TEXT, drivetrain TEXT,
//		fuel_type TEXT, engine TEXT, description TEXT,
//		photos JSONB NOT NULL DEFAULT '[]',
//		city TEXT, state TEXT, latitude DOUBLE PRECISION, longitude DOUBLE PRECISION,
//		status TEXT NOT NULL,
//		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//		UNIQUE (dealer_id, vin)
//	);
//
//	CREATE TABLE dealers (
//		id TEXT PRIMARY KEY,
//		name TEXT NOT NULL,
//		city TEXT, state TEXT,
//		feed_url TEXT NOT NULL DEFAULT '',
//		feed_type TEXT NOT NULL DEFAULT 'dealeron',
//		auto_sync_enabled BOOLEAN NOT NULL DEFAULT FALSE,
//		sync_frequency_days INT NOT NULL DEFAULT 2,
//		approved BOOLEAN NOT NULL DEFAULT FALSE,
//		last_sync_at TIMESTAMPTZ,
//		last_sync_status TEXT,
//		last_sync_message TEXT
//	);
type PostgresStore struct {
	pool pgxPool
}

// NewPostgresStore connects a pool and pings it so startup fails fast on a
// bad DSN.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresStoreWithPool constructs a store from an existing pool
// (primarily for testing with pgxmock).
func NewPostgresStoreWithPool(pool pgxPool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *PostgresStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

const vehicleColumns = `id, dealer_id, vin, slug, year, make, model, trim, price, mileage,
color, transmission, body_type, drivetrain, fuel_type, engine, description,
photos, city, state, latitude, longitude, status, created_at, updated_at`

// ListUnsold returns every record for dealerID with status != sold.
func (s *PostgresStore) ListUnsold(ctx context.Context, dealerID string) ([]inventory.Vehicle, error) {
	query := fmt.Sprintf(`SELECT %s FROM vehicles WHERE dealer_id = $1 AND status <> $2`, vehicleColumns)
	rows, err := s.pool.Query(ctx, query, dealerID, string(inventory.StatusSold))
	if err != nil {
		return nil, fmt.Errorf("list unsold vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []inventory.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vehicles: %w", err)
	}
	return vehicles, nil
}

func scanVehicle(row pgx.Row) (inventory.Vehicle, error) {
	var v inventory.Vehicle
	var photos []byte
	err := row.Scan(
		&v.ID, &v.DealerID, &v.VIN, &v.Slug, &v.Year, &v.Make, &v.Model, &v.Trim,
		&v.Price, &v.Mileage, &v.Color, &v.Transmission, &v.BodyType, &v.Drivetrain,
		&v.FuelType, &v.Engine, &v.Description, &photos, &v.City, &v.State,
		&v.Latitude, &v.Longitude, &v.Status, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return inventory.Vehicle{}, fmt.Errorf("scan vehicle: %w", err)
	}
	if len(photos) > 0 {
		if err := json.Unmarshal(photos, &v.Photos); err != nil {
			return inventory.Vehicle{}, fmt.Errorf("unmarshal photos for %s: %w", v.VIN, err)
		}
	}
	return v, nil
}

// Create inserts a new vehicle record.
func (s *PostgresStore) Create(ctx context.Context, v inventory.Vehicle) error {
	if v.ID == "" {
		return fmt.Errorf("vehicle id is required")
	}
	photos, err := json.Marshal(v.Photos)
	if err != nil {
		return fmt.Errorf("marshal photos: %w", err)
	}
	query := fmt.Sprintf(`INSERT INTO vehicles (%s) VALUES
($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)`, vehicleColumns)
	_, err = s.pool.Exec(ctx, query,
		v.ID, v.DealerID, v.VIN, v.Slug, v.Year, v.Make, v.Model, v.Trim,
		v.Price, v.Mileage, v.Color, v.Transmission, v.BodyType, v.Drivetrain,
		v.FuelType, v.Engine, v.Description, photos, v.City, v.State,
		v.Latitude, v.Longitude, string(v.Status), v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert vehicle %s: %w", v.VIN, err)
	}
	return nil
}

// Update applies only the fields set in upd, in a single statement.
func (s *PostgresStore) Update(ctx context.Context, id string, upd VehicleUpdate) error {
	if upd.IsEmpty() {
		return nil
	}
	sets := make([]string, 0, 6)
	args := make([]any, 0, 7)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if upd.Price != nil {
		add("price", *upd.Price)
	}
	if upd.Mileage != nil {
		add("mileage", *upd.Mileage)
	}
	if upd.Color != nil {
		add("color", *upd.Color)
	}
	if upd.FuelType != nil {
		add("fuel_type", *upd.FuelType)
	}
	if upd.Photos != nil {
		photos, err := json.Marshal(upd.Photos)
		if err != nil {
			return fmt.Errorf("marshal photos: %w", err)
		}
		add("photos", photos)
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, id)
	query := fmt.Sprintf("UPDATE vehicles SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update vehicle %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkSold transitions one record to sold.
func (s *PostgresStore) MarkSold(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE vehicles SET status = $1, updated_at = NOW() WHERE id = $2`,
		string(inventory.StatusSold), id,
	)
	if err != nil {
		return fmt.Errorf("mark vehicle %s sold: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SlugExists reports whether slug is already taken.
func (s *PostgresStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM vehicles WHERE slug = $1)`, slug,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slug %s: %w", slug, err)
	}
	return exists, nil
}

const dealerColumns = `id, name, city, state, feed_url, feed_type, auto_sync_enabled,
sync_frequency_days, approved, last_sync_at, last_sync_status, last_sync_message`

// Get returns one dealer, or ErrNotFound.
func (s *PostgresStore) Get(ctx context.Context, id string) (inventory.Dealer, error) {
	query := fmt.Sprintf(`SELECT %s FROM dealers WHERE id = $1`, dealerColumns)
	d, err := scanDealer(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return inventory.Dealer{}, ErrNotFound
	}
	return d, err
}

func scanDealer(row pgx.Row) (inventory.Dealer, error) {
	var d inventory.Dealer
	var lastStatus, lastMessage *string
	err := row.Scan(
		&d.ID, &d.Name, &d.City, &d.State, &d.FeedURL, &d.FeedType,
		&d.AutoSyncEnabled, &d.SyncFrequencyDays, &d.Approved,
		&d.LastSyncAt, &lastStatus, &lastMessage,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return inventory.Dealer{}, err
		}
		return inventory.Dealer{}, fmt.Errorf("scan dealer: %w", err)
	}
	if lastStatus != nil {
		d.LastSyncStatus = inventory.SyncStatus(*lastStatus)
	}
	if lastMessage != nil {
		d.LastSyncMessage = *lastMessage
	}
	return d, nil
}

// ListDue returns dealers eligible for a scheduled sync.
func (s *PostgresStore) ListDue(ctx context.Context, cutoff time.Time) ([]inventory.Dealer, error) {
	query := fmt.Sprintf(`SELECT %s FROM dealers
WHERE auto_sync_enabled = TRUE
  AND feed_url <> ''
  AND approved = TRUE
  AND (last_sync_at IS NULL OR last_sync_at < $1)`, dealerColumns)
	rows, err := s.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list due dealers: %w", err)
	}
	defer rows.Close()

	var dealers []inventory.Dealer
	for rows.Next() {
		d, err := scanDealer(rows)
		if err != nil {
			return nil, err
		}
		dealers = append(dealers, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dealers: %w", err)
	}
	return dealers, nil
}

// MarkSyncInProgress persists in_progress before the run starts.
func (s *PostgresStore) MarkSyncInProgress(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE dealers SET last_sync_status = $1, last_sync_message = $2 WHERE id = $3`,
		string(inventory.SyncStatusInProgress), "Sync started", id,
	)
	if err != nil {
		return fmt.Errorf("mark sync in progress for %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordSyncResult persists the terminal status and timestamp.
func (s *PostgresStore) RecordSyncResult(ctx context.Context, id string, status inventory.SyncStatus, message string, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE dealers SET last_sync_status = $1, last_sync_message = $2, last_sync_at = $3 WHERE id = $4`,
		string(status), message, at, id,
	)
	if err != nil {
		return fmt.Errorf("record sync result for %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
