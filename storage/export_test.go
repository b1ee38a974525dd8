package storage

import "github.com/jackc/pgx/v5/pgxpool"

// GetPool exposes the pool so tests can reshape the table directly.
func (pgr *PostgresRepo) GetPool() *pgxpool.Pool {
	return pgr.pool
}
