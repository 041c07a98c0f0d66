// Package store abstracts connection checkout for the dispatch bridge. A
// bridge worker acquires one Conn per operation, runs every repository call of
// that operation on it, and releases it, so the number of connections in use
// never exceeds the worker count.
package store

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/rathod-sahaab/elide/internal/link"
	"github.com/rathod-sahaab/elide/internal/user"
)

// Conn is a single checked-out storage connection with the repositories bound
// to it.
type Conn interface {
	Links() link.Repository
	Users() user.Repository
	Release() error
}

// Pool hands out storage connections.
type Pool interface {
	Acquire(ctx context.Context) (Conn, error)
}

// PostgresPool checks connections out of the database/sql pool underneath bun.
type PostgresPool struct {
	db *bun.DB
}

var _ Pool = (*PostgresPool)(nil)

func NewPostgresPool(db *bun.DB) *PostgresPool {
	return &PostgresPool{db: db}
}

func (p *PostgresPool) Acquire(ctx context.Context) (Conn, error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &postgresConn{conn: conn}, nil
}

type postgresConn struct {
	conn bun.Conn
}

func (c *postgresConn) Links() link.Repository {
	return link.NewPostgresRepository(c.conn)
}

func (c *postgresConn) Users() user.Repository {
	return user.NewPostgresRepository(c.conn)
}

func (c *postgresConn) Release() error {
	return c.conn.Close()
}
