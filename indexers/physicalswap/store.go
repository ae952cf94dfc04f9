package physicalswap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/goran-ethernal/SwapIndexor/indexers/physicalswap/migrations"
	"github.com/goran-ethernal/SwapIndexor/internal/db"
	"github.com/goran-ethernal/SwapIndexor/internal/logger"
	"github.com/goran-ethernal/SwapIndexor/internal/metrics"
	"github.com/goran-ethernal/SwapIndexor/pkg/config"
	"github.com/russross/meddler"
)

// ErrNotFound is returned by the getters when no entity has the requested id.
var ErrNotFound = errors.New("entity not found")

// Store persists the projected entities in SQLite.
type Store struct {
	db   *sql.DB
	name string
	log  *logger.Logger
}

// NewStore migrates and opens the entity database.
func NewStore(cfg config.DatabaseConfig, name string, log *logger.Logger) (*Store, error) {
	if err := migrations.RunMigrations(cfg); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	database, err := db.NewSQLiteDBFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	return &Store{db: database, name: name, log: log}, nil
}

// Tx is a store transaction. All upserts of one event share one Tx.
type Tx struct {
	tx     *sql.Tx
	writes []string
}

// Update runs fn in a transaction and commits it if fn succeeds.
func (s *Store) Update(ctx context.Context, fn func(*Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := sqlTx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			s.log.Errorf("failed to rollback transaction: %v", err)
		}
	}()

	tx := &Tx{tx: sqlTx}
	if err := fn(tx); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	for _, table := range tx.writes {
		metrics.EntityWrittenInc(s.name, table)
	}
	return nil
}

// UpsertCharge applies fn to the stored charge (or a new one) and writes it back.
func (t *Tx) UpsertCharge(id string, fn func(*Charge)) error {
	return upsert(t, tableCharges, id, fn)
}

// UpsertPayment applies fn to the stored payment (or a new one) and writes it back.
func (t *Tx) UpsertPayment(id string, fn func(*Payment)) error {
	return upsert(t, tablePayments, id, fn)
}

// UpsertProduct applies fn to the stored product (or a new one) and writes it back.
func (t *Tx) UpsertProduct(id string, fn func(*Product)) error {
	return upsert(t, tableProducts, id, fn)
}

// UpsertUser applies fn to the stored user (or a new one) and writes it back.
func (t *Tx) UpsertUser(id string, fn func(*User)) error {
	return upsert(t, tableUsers, id, fn)
}

// UpsertNFT applies fn to the stored NFT (or a new one) and writes it back.
func (t *Tx) UpsertNFT(id string, fn func(*NFT)) error {
	return upsert(t, tableNFTs, id, fn)
}

// upsert reads the row with the given id, lets fn modify it and replaces the row.
// Fields fn does not touch keep their stored values.
func upsert[T any, P interface {
	*T
	setID(string)
}](t *Tx, table, id string, fn func(P)) error {
	var entity T
	ptr := P(&entity)

	err := meddler.QueryRow(t.tx, ptr, fmt.Sprintf("SELECT * FROM %s WHERE id = ?", table), id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to read %s %s: %w", table, id, err)
	}

	fn(ptr)
	ptr.setID(id)

	columns, err := meddler.ColumnsQuoted(ptr, true)
	if err != nil {
		return err
	}
	placeholders, err := meddler.PlaceholdersString(ptr, true)
	if err != nil {
		return err
	}
	values, err := meddler.Default.Values(ptr, true)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) VALUES (%s)", table, columns, placeholders)
	if _, err := t.tx.Exec(query, values...); err != nil {
		return fmt.Errorf("failed to write %s %s: %w", table, id, err)
	}

	t.writes = append(t.writes, table)
	return nil
}

// GetCharge returns the charge with the given id.
func (s *Store) GetCharge(ctx context.Context, id string) (*Charge, error) {
	return get[Charge](ctx, s, tableCharges, id)
}

// GetPayment returns the payment with the given id.
func (s *Store) GetPayment(ctx context.Context, id string) (*Payment, error) {
	return get[Payment](ctx, s, tablePayments, id)
}

// GetProduct returns the product with the given id.
func (s *Store) GetProduct(ctx context.Context, id string) (*Product, error) {
	return get[Product](ctx, s, tableProducts, id)
}

// GetUser returns the user with the given id.
func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	return get[User](ctx, s, tableUsers, id)
}

// GetNFT returns the NFT with the given id.
func (s *Store) GetNFT(ctx context.Context, id string) (*NFT, error) {
	return get[NFT](ctx, s, tableNFTs, id)
}

// PaymentsOfCharge returns the payments of a charge ordered by id.
func (s *Store) PaymentsOfCharge(ctx context.Context, chargeID string) ([]*Payment, error) {
	var payments []*Payment
	query := fmt.Sprintf("SELECT * FROM %s WHERE charge = ? ORDER BY id", tablePayments)
	if err := meddler.QueryAll(s.db, &payments, query, chargeID); err != nil {
		return nil, fmt.Errorf("failed to query payments of %s: %w", chargeID, err)
	}
	return payments, nil
}

// Count returns the number of rows in each entity table.
func (s *Store) Count(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, table := range []string{tableProducts, tableUsers, tableNFTs, tableCharges, tablePayments} {
		var n int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func get[T any](ctx context.Context, s *Store, table, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entity := new(T)
	err := meddler.QueryRow(s.db, entity, fmt.Sprintf("SELECT * FROM %s WHERE id = ?", table), strings.ToLower(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", table, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s %s: %w", table, id, err)
	}
	return entity, nil
}
