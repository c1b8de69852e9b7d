package store

import (
	"context"
	"fmt"
)

// Seeded book ids land in this range; operations that address a random
// row draw from it. Matches the fixture's default population.
const maxBookID = 1000

// insertedTitlePrefix marks rows this harness created, so deletes only
// ever touch harness data.
const insertedTitlePrefix = "Load Test Book"

var genres = []string{"Fiction", "Non-Fiction", "Science", "History", "Biography"}

// selectOp runs one of four read shapes chosen uniformly: a page scan,
// a point lookup, a join against authors, or a count.
func (e *Executor) selectOp(ctx context.Context) error {
	switch e.rng.Intn(4) {
	case 0:
		return e.drain(ctx,
			`SELECT id, title, author_id, price, year, genre FROM books ORDER BY id LIMIT 100`)
	case 1:
		return e.drain(ctx,
			`SELECT id, title, author_id, price, year, genre FROM books WHERE id = $1`,
			e.rng.Intn(maxBookID)+1)
	case 2:
		return e.drain(ctx,
			`SELECT b.id, b.title, a.name
			 FROM books b
			 JOIN authors a ON a.id = b.author_id
			 ORDER BY b.id LIMIT 50`)
	default:
		return e.drain(ctx, `SELECT count(*) FROM books`)
	}
}

func (e *Executor) insertOp(ctx context.Context) error {
	title := fmt.Sprintf("%s %06d", insertedTitlePrefix, e.rng.Intn(1_000_000))
	_, err := e.conn.Exec(ctx,
		`INSERT INTO books (title, author_id, price, year, genre) VALUES ($1, $2, $3, $4, $5)`,
		title,
		e.rng.Intn(20)+1,
		10+e.rng.Float64()*90,
		1900+e.rng.Intn(126),
		genres[e.rng.Intn(len(genres))],
	)
	return err
}

func (e *Executor) updateOp(ctx context.Context) error {
	_, err := e.conn.Exec(ctx,
		`UPDATE books SET price = $1 WHERE id = $2`,
		10+e.rng.Float64()*90,
		e.rng.Intn(maxBookID)+1,
	)
	return err
}

func (e *Executor) deleteOp(ctx context.Context) error {
	_, err := e.conn.Exec(ctx,
		`DELETE FROM books
		 WHERE id IN (SELECT id FROM books WHERE title LIKE $1 LIMIT 1)`,
		insertedTitlePrefix+"%",
	)
	return err
}

// drain runs a query and consumes every row; reads are only meaningful
// load if the rows actually cross the wire.
func (e *Executor) drain(ctx context.Context, sql string, args ...any) error {
	rows, err := e.conn.Query(ctx, sql, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
	}
	return rows.Err()
}
