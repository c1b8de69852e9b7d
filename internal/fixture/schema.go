package fixture

import (
	"context"
	"fmt"
)

// expectedColumns is the schema contract the load operations assume.
var expectedColumns = map[string][]string{
	"authors": {"id", "name"},
	"books":   {"id", "title", "author_id", "price", "year", "genre"},
}

const columnsSQL = `
	SELECT column_name FROM information_schema.columns
	WHERE table_schema = 'public' AND table_name = $1`

// CheckSchema verifies both tables exist with the columns the
// operations touch. It returns the first missing table or column.
func (t *Tool) CheckSchema(ctx context.Context) error {
	for table, want := range expectedColumns {
		rows, err := t.Pool.Query(ctx, columnsSQL, table)
		if err != nil {
			return fmt.Errorf("inspecting %s: %w", table, err)
		}

		found := make(map[string]bool)
		for rows.Next() {
			var col string
			if err := rows.Scan(&col); err != nil {
				rows.Close()
				return fmt.Errorf("inspecting %s: %w", table, err)
			}
			found[col] = true
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("inspecting %s: %w", table, err)
		}

		if len(found) == 0 {
			return fmt.Errorf("table %q does not exist", table)
		}
		for _, col := range want {
			if !found[col] {
				return fmt.Errorf("table %q is missing column %q", table, col)
			}
		}
		t.Logger.Info("schema ok", "table", table, "columns", len(found))
	}
	return nil
}
