package migrations

import (
	"context"
	"strings"

	"github.com/uptrace/bun"
)

// execSplit runs each "--bun:split" separated statement of an embedded SQL file.
func execSplit(ctx context.Context, db *bun.DB, script string) error {
	for _, stmt := range strings.Split(script, "--bun:split") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
