// Package store is the PostgreSQL implementation of the harness's
// executor and probe capabilities. Each worker gets its own dedicated
// connection; only the health probe and fixture tooling go through a
// shared pool.
package store

import (
	"context"
	"errors"
	"math/rand"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"dbpulse/internal/core"
)

// Factory opens one dedicated connection per worker.
type Factory struct {
	ConnString string
}

// Acquire implements core.ExecutorFactory. The returned executor owns
// the connection until Close.
func (f *Factory) Acquire(ctx context.Context, workerID int) (core.Executor, error) {
	conn, err := pgx.Connect(ctx, f.ConnString)
	if err != nil {
		return nil, connectionLost(err)
	}
	return &Executor{
		conn: conn,
		rng:  rand.New(rand.NewSource(rand.Int63() + int64(workerID))),
	}, nil
}

// Executor runs single operations over one dedicated connection. Not
// safe for concurrent use; the owning worker is the only caller.
type Executor struct {
	conn *pgx.Conn
	rng  *rand.Rand
}

// Execute implements core.Executor. Errors that indicate the connection
// itself is gone wrap core.ErrConnectionLost; everything else is an
// ordinary operation failure.
func (e *Executor) Execute(ctx context.Context, kind core.OperationKind) error {
	var err error
	switch kind {
	case core.KindSelect:
		err = e.selectOp(ctx)
	case core.KindInsert:
		err = e.insertOp(ctx)
	case core.KindUpdate:
		err = e.updateOp(ctx)
	case core.KindDelete:
		err = e.deleteOp(ctx)
	default:
		return errors.New("unhandled operation kind " + kind.String())
	}
	if err == nil {
		return nil
	}
	if e.conn.IsClosed() || isConnectionError(err) {
		return connectionLost(err)
	}
	return err
}

// Close implements core.Executor.
func (e *Executor) Close(ctx context.Context) error {
	return e.conn.Close(ctx)
}

func connectionLost(err error) error {
	return errors.Join(core.ErrConnectionLost, err)
}

// isConnectionError classifies an operation error as connection-level.
// SQLSTATE class 08 is "connection exception"; 57P01-57P03 are server
// shutdown and startup states that also take the session down.
func isConnectionError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.HasPrefix(pgErr.Code, "08") {
			return true
		}
		switch pgErr.Code {
		case "57P01", "57P02", "57P03":
			return true
		}
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}
