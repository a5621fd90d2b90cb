package entity

import (
	"time"

	"github.com/google/uuid"
)

// Base is embedded by rows that are updated in place and carry a version
// used for compare-and-swap updates.
type Base struct {
	ID        uuid.UUID `db:"id"`
	Version   int       `db:"version"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// BaseSimple is embedded by append-only rows.
type BaseSimple struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
}
