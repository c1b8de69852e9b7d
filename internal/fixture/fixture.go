// Package fixture seeds, populates, verifies and cleans the harness's
// tables. This is tooling around the core run: it shares the store's
// schema but none of its concurrency machinery.
package fixture

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SeedAuthors is the fixed author pool referenced by generated books.
var SeedAuthors = []string{
	"William Shakespeare", "Jane Austen", "Charles Dickens", "Mark Twain",
	"Ernest Hemingway", "F. Scott Fitzgerald", "George Orwell", "J.K. Rowling",
	"Stephen King", "Agatha Christie", "Leo Tolstoy", "Fyodor Dostoevsky",
	"Virginia Woolf", "James Joyce", "Franz Kafka", "Gabriel Garcia Marquez",
	"Haruki Murakami", "Margaret Atwood", "Toni Morrison", "Chinua Achebe",
}

// batchSize bounds how many inserts ride in one round trip during bulk
// population.
const batchSize = 500

// Tool wraps a connection pool with the fixture operations.
type Tool struct {
	Pool   *pgxpool.Pool
	Logger *log.Logger
}

func New(ctx context.Context, connString string, logger *log.Logger) (*Tool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connecting fixture pool: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Tool{Pool: pool, Logger: logger}, nil
}

func (t *Tool) Close() { t.Pool.Close() }

// Seed inserts the author pool if it is not already present.
func (t *Tool) Seed(ctx context.Context) error {
	var existing int
	if err := t.Pool.QueryRow(ctx, `SELECT count(*) FROM authors`).Scan(&existing); err != nil {
		return fmt.Errorf("counting authors: %w", err)
	}
	if existing >= len(SeedAuthors) {
		t.Logger.Info("authors already seeded, skipping", "existing", existing)
		return nil
	}

	batch := &pgx.Batch{}
	for _, name := range SeedAuthors {
		batch.Queue(`INSERT INTO authors (name) VALUES ($1)`, name)
	}
	if err := t.Pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("seeding authors: %w", err)
	}
	t.Logger.Info("seeded authors", "count", len(SeedAuthors))
	return nil
}

// Populate bulk-inserts n generated books so read operations have rows
// to hit. Inserts go out in batches to keep round trips bounded.
func (t *Tool) Populate(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	if err := t.Seed(ctx); err != nil {
		return err
	}

	inserted := 0
	for inserted < n {
		batch := &pgx.Batch{}
		for i := 0; inserted+i < n && i < batchSize; i++ {
			seq := inserted + i
			batch.Queue(
				`INSERT INTO books (title, author_id, price, year, genre) VALUES ($1, $2, $3, $4, $5)`,
				fmt.Sprintf("Fixture Book %06d", seq+1),
				seq%len(SeedAuthors)+1,
				float64(10+seq%90),
				1900+seq%126,
				[]string{"Fiction", "Non-Fiction", "Science", "History", "Biography"}[seq%5],
			)
		}
		count := batch.Len()
		if err := t.Pool.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("populating books after %d rows: %w", inserted, err)
		}
		inserted += count
		t.Logger.Info("populated books", "inserted", inserted, "target", n)
	}
	return nil
}

// Cleanup deletes every harness row and resets the author id sequence,
// books first because of the foreign key.
func (t *Tool) Cleanup(ctx context.Context) error {
	tag, err := t.Pool.Exec(ctx, `DELETE FROM books`)
	if err != nil {
		return fmt.Errorf("deleting books: %w", err)
	}
	books := tag.RowsAffected()

	tag, err = t.Pool.Exec(ctx, `DELETE FROM authors`)
	if err != nil {
		return fmt.Errorf("deleting authors: %w", err)
	}
	authors := tag.RowsAffected()

	if _, err := t.Pool.Exec(ctx, `ALTER SEQUENCE authors_id_seq RESTART WITH 1`); err != nil {
		return fmt.Errorf("resetting author sequence: %w", err)
	}

	t.Logger.Info("cleanup complete", "books", books, "authors", authors)
	return nil
}
