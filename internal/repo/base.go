package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base carries the gorm handle shared by the domain repositories. Embedding
// it gives each repository (shops, inventory, orders, ...) the same
// context-bound accessor without re-declaring the field.
type Base struct {
	conn *gorm.DB
}

// NewBase wraps an open gorm connection.
func NewBase(conn *gorm.DB) Base {
	return Base{conn: conn}
}

// DB binds the request context to the connection so cancellation and logger
// fields flow into every query. A nil context returns the raw handle.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.conn
	}
	return b.conn.WithContext(ctx)
}
