package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tidwall/gjson"

	"dbpulse/internal/core"
)

// CounterNames lists the pg_stat_database counters a sample carries, in
// report column order.
var CounterNames = []string{
	"xact_commit",
	"xact_rollback",
	"blks_read",
	"blks_hit",
	"tup_returned",
	"tup_inserted",
	"tup_updated",
	"tup_deleted",
	"deadlocks",
}

const activeConnectionsSQL = `
	SELECT count(*) FROM pg_stat_activity
	WHERE datname = $1 AND pid <> pg_backend_pid()`

// The counter row travels as JSON so a missing or renamed column on an
// older server degrades to a zero value instead of a scan error.
const countersSQL = `
	SELECT row_to_json(d)::text FROM (
		SELECT xact_commit, xact_rollback, blks_read, blks_hit,
		       tup_returned, tup_inserted, tup_updated, tup_deleted,
		       deadlocks
		FROM pg_stat_database WHERE datname = $1
	) d`

// CPU and memory come from the system_stats extension when installed.
const cpuSQL = `SELECT COALESCE(usermode_normal_process_percent, 0) FROM pg_sys_cpu_usage_info()`
const memorySQL = `SELECT used_memory / 1048576.0 FROM pg_sys_memory_info()`

// Probe reads the store's health views through a shared pool. Pooling
// here is fine: the probe is the pool's only user during a run and the
// per-worker no-sharing rule applies to executors, not probes.
type Probe struct {
	Pool     *pgxpool.Pool
	Database string
}

// NewProbe connects a probe pool for the given DSN.
func NewProbe(ctx context.Context, connString, database string) (*Probe, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 2
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Probe{Pool: pool, Database: database}, nil
}

// Sample implements core.Probe. The connection count is the one field
// that must succeed; cpu, memory and counters fall back to zero when
// their views are unavailable, mirroring how unsupported metrics read
// as zero in the original monitoring queries.
func (p *Probe) Sample(ctx context.Context) (core.HealthSample, error) {
	s := core.HealthSample{
		Timestamp: time.Now(),
		Counters:  make(map[string]float64, len(CounterNames)),
	}

	if err := p.Pool.QueryRow(ctx, activeConnectionsSQL, p.Database).Scan(&s.ActiveConnections); err != nil {
		return core.HealthSample{}, err
	}

	var payload string
	if err := p.Pool.QueryRow(ctx, countersSQL, p.Database).Scan(&payload); err == nil {
		for _, name := range CounterNames {
			s.Counters[name] = gjson.Get(payload, name).Float()
		}
	}

	_ = p.Pool.QueryRow(ctx, cpuSQL).Scan(&s.CPUPct)
	_ = p.Pool.QueryRow(ctx, memorySQL).Scan(&s.MemoryMB)

	return s, nil
}

// Close releases the probe's pool.
func (p *Probe) Close() {
	p.Pool.Close()
}
