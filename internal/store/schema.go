package store

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// CreateSchema creates the tables used by the stores when they are missing.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	models := []any{
		(*Credential)(nil),
		(*Document)(nil),
	}
	for _, m := range models {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", m, err)
		}
	}
	return nil
}
