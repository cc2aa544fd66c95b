package postgres

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
	"github.com/vfarias/sales-analytics-api/internal/config"
)

// TxRunner executa uma função dentro de uma transação única, com commit no
// sucesso e rollback em qualquer erro. É a fronteira transacional usada pela
// importação em lote e pela reconciliação de metas.
type TxRunner interface {
	RunInTransaction(ctx context.Context, fn func(q Queryer) error) error
}

type Conn interface {
	Queryer
	TxRunner
	Close() error
	Ping(ctx context.Context) error
}

type Connection struct {
	*sql.DB
}

func NewConnection(
	ctx context.Context,
	cfg config.Database,
) (*Connection, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	return &Connection{DB: db}, nil
}

func (c *Connection) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// RunInTransaction executa fn dentro de uma transação. A conexão é liberada
// em todos os caminhos de saída: commit, rollback por erro ou panic.
func (c *Connection) RunInTransaction(ctx context.Context, fn func(q Queryer) error) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err := recover(); err != nil {
			_ = tx.Rollback()
			panic(err)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return rbErr
		}
		return err
	}

	return tx.Commit()
}
