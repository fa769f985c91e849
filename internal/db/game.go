package db

import (
	"time"

	"gorm.io/datatypes"
)

type Game struct {
	ID              string                      `gorm:"primaryKey;size:36"`
	Code            *string                     `gorm:"size:9;index:idx_games_code;uniqueIndex:idx_games_live_code,where:turn <> -1"`
	OwnerID         string                      `gorm:"size:128;index;not null"`
	Turn            int                         `gorm:"not null;default:0"`
	GuessedThisTurn int                         `gorm:"not null;default:0"`
	ExplainTime     time.Time                   `gorm:"not null"`
	BasketChange    int                         `gorm:"not null;default:0"`
	LastWord        *string                     `gorm:"size:255"`
	CurrentWord     string                      `gorm:"size:255;not null;default:''"`
	LeftWords       datatypes.JSONSlice[string] `gorm:"not null"`
	GuessedWords    datatypes.JSONSlice[string] `gorm:"not null"`
	MissedWords     datatypes.JSONSlice[string] `gorm:"not null"`
	BasketWords     datatypes.JSONSlice[string] `gorm:"not null"`
	BasketStatus    datatypes.JSONSlice[string] `gorm:"not null"`
	Difficulty      int                         `gorm:"not null;default:0"`
	WordsQty        int                         `gorm:"not null;default:0"`
	RoundDuration   int                         `gorm:"not null;default:0"`
	CreatedAt       time.Time                   `gorm:"not null;index"`
	UpdatedAt       time.Time                   `gorm:"not null"`
	Players         []Player                    `gorm:"constraint:OnDelete:CASCADE"`
}
