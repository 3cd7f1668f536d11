package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// stamp fills the primary key and timestamps the way every table expects:
// v7 ids and created_at on insert, updated_at on every write.
func stamp(query bun.Query, id *uuid.UUID, createdAt, updatedAt *time.Time) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if *id == uuid.Nil {
			v, err := uuid.NewV7()
			if err != nil {
				return err
			}
			*id = v
		}
		if createdAt.IsZero() {
			*createdAt = now
		}
		if updatedAt.IsZero() {
			*updatedAt = now
		}
	case *bun.UpdateQuery:
		*updatedAt = now
	}
	return nil
}
