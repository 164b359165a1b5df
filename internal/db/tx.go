package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"airline/internal/flights"
	"airline/internal/types"
)

// TxManager executes a callback inside a single database transaction. The
// callback receives a transaction-scoped DBTX; the transaction commits when
// the callback returns nil and rolls back otherwise.
type TxManager struct {
	pool *pgxpool.Pool
}

// NewTxManager creates a TxManager over the given pool.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

// RunInTx begins a transaction, runs fn with it, and commits or rolls back
// depending on the outcome. The rollback after a successful commit is a
// no-op.
func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context, q DBTX) error) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to commit transaction", err)
	}
	return nil
}

// FlightTxManager adapts TxManager to the flights service transaction seam,
// handing the callback repositories bound to the same transaction.
type FlightTxManager struct {
	tx *TxManager
}

// NewFlightTxManager creates the transaction manager used by the flights
// service.
func NewFlightTxManager(pool *pgxpool.Pool) *FlightTxManager {
	return &FlightTxManager{tx: NewTxManager(pool)}
}

// RunInTx implements flights.TxManager.
func (m *FlightTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context, repos flights.TxRepos) error) error {
	return m.tx.RunInTx(ctx, func(txCtx context.Context, q DBTX) error {
		return fn(txCtx, flights.TxRepos{
			Airlines: NewAirlineRepository(q),
			Planes:   NewPlaneRepository(q),
			Flights:  NewFlightRepository(q),
		})
	})
}
