package gormrepo

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// paginate applies limit/offset; a non-positive limit returns every row.
func paginate(limit, offset int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if limit > 0 {
			db = db.Limit(limit)
		}
		if offset > 0 {
			db = db.Offset(offset)
		}
		return db
	}
}

// forUpdate locks selected rows until the transaction ends. SQLite ignores it.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

type groupCount struct {
	Label string
	N     int64
}
