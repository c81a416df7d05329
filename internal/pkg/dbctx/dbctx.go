package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
// Repos fall back to their own connection when Tx is nil; a caller that
// needs several writes to land together, like a test seeding orders and
// sessions under one rollback, passes the same Tx through every repo it
// touches.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}
