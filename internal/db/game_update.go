package db

import (
	"time"

	"gorm.io/datatypes"
)

// GameUpdate is an append-only snapshot of a game taken on every full
// update.
type GameUpdate struct {
	ID        uint           `gorm:"primaryKey"`
	GameID    string         `gorm:"size:36;index;not null"`
	OwnerID   string         `gorm:"size:128;not null"`
	Payload   datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time      `gorm:"not null"`
}
