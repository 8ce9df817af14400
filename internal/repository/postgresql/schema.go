package postgresql

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/google/uuid"

	"github.com/cmlabs-hris/schedule-core/internal/pkg/database"
)

//go:embed schema.sql
var schemaSQL string

// Migrate creates the tables this package reads and writes. It is safe to
// run on every start.
func Migrate(ctx context.Context, db *database.DB) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// isUUID reports whether id can match a UUID primary key. Other ids
// cannot exist, and passing them to PostgreSQL fails the cast.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
