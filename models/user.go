package models

import (
	"time"

	"gorm.io/gorm"
)

// User is the locally owned slice of a player account: wallet balance,
// suspension flag and the transaction-secret hash. Profile data (names,
// avatars, email) lives in the profile service and is not mirrored here.
type User struct {
	ID            string `gorm:"primaryKey;type:uuid" json:"id"`
	Username      string `gorm:"index;not null" json:"username"`
	BalanceCents  int64  `gorm:"not null;default:0" json:"balance_cents"`
	IsSuspended   bool   `gorm:"default:false" json:"is_suspended"`
	TxnSecretHash string `gorm:"type:text" json:"-"` // bcrypt; empty = secret not set

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
