package store

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

var schemaCache = &sync.Map{}

// UpsertMany writes a batch of records in one all-or-nothing transaction.
// On natural-key conflict every column except the key column(s), the local
// primary key and created_at is updated; updated_at always advances. An empty
// batch is a no-op and opens no transaction. If any record fails, the whole
// batch rolls back.
func UpsertMany[T any](ctx context.Context, db *gorm.DB, keyColumns []string, rows []*T) error {
	if len(rows) == 0 {
		return nil
	}

	updatable, err := updateColumns[T](db, keyColumns)
	if err != nil {
		return err
	}

	conflict := make([]clause.Column, 0, len(keyColumns))
	for _, col := range keyColumns {
		conflict = append(conflict, clause.Column{Name: col})
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   conflict,
			DoUpdates: clause.AssignmentColumns(updatable),
		}).Create(&rows).Error
	})
}

// updateColumns resolves the assignment list from the model schema: all
// columns minus the conflict key, the primary key and created_at. A key column
// that does not exist in the schema is a configuration error.
func updateColumns[T any](db *gorm.DB, keyColumns []string) ([]string, error) {
	s, err := schema.Parse(new(T), schemaCache, db.NamingStrategy)
	if err != nil {
		return nil, fmt.Errorf("parse schema for upsert: %w", err)
	}

	known := make(map[string]bool, len(s.Fields))
	for _, field := range s.Fields {
		if field.DBName != "" {
			known[field.DBName] = true
		}
	}
	excluded := make(map[string]bool, len(keyColumns)+2)
	for _, col := range keyColumns {
		if !known[col] {
			return nil, fmt.Errorf("upsert key column %q not in %s schema", col, s.Table)
		}
		excluded[col] = true
	}
	excluded["created_at"] = true

	columns := make([]string, 0, len(s.Fields))
	for _, field := range s.Fields {
		if field.DBName == "" || field.PrimaryKey || excluded[field.DBName] {
			continue
		}
		columns = append(columns, field.DBName)
	}
	return columns, nil
}
