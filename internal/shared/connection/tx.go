package connection

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// Bind returns a gorm handle that runs on tx when one is given, so gorm
// repositories join a transaction opened with database/sql.
func Bind(ctx context.Context, db *gorm.DB, tx *sql.Tx) *gorm.DB {
	if tx == nil {
		return db.WithContext(ctx)
	}

	session := db.Session(&gorm.Session{
		Context:                ctx,
		NewDB:                  true,
		SkipDefaultTransaction: true,
	})
	session.Statement.ConnPool = tx
	return session
}
