package models

import "time"

// TransactionKind enumerates the ledger entry kinds. Audit context is carried
// by the typed GameID/SettlementID references, not a free-form metadata bag.
type TransactionKind string

const (
	TransactionKindStake  TransactionKind = "stake"
	TransactionKindPayout TransactionKind = "payout"
	TransactionKindRefund TransactionKind = "refund"
)

// WalletTransaction is one append-only ledger entry. AmountCents is signed:
// negative for debits (stakes), positive for credits (payouts, refunds).
type WalletTransaction struct {
	ID                string          `gorm:"primaryKey;type:uuid" json:"id"`
	UserID            string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Kind              TransactionKind `gorm:"type:varchar(16);not null;index" json:"kind"`
	AmountCents       int64           `gorm:"not null" json:"amount_cents"`
	BalanceAfterCents int64           `gorm:"not null" json:"balance_after_cents"`
	GameID            *string         `gorm:"type:uuid;index" json:"game_id,omitempty"`
	SettlementID      *string         `gorm:"type:uuid;index" json:"settlement_id,omitempty"`
	Description       string          `gorm:"type:text" json:"description"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// Settlement statuses
const (
	SettlementStatusPending = "pending"
	SettlementStatusApplied = "applied"
)

// Settlement is the one-per-game marker that makes payout application
// resumable: written as pending before any credit, flipped to applied once
// every credit and audit field is in place. The unique game_id index is what
// enforces exactly-once settlement at the storage layer.
type Settlement struct {
	ID               string     `gorm:"primaryKey;type:uuid" json:"id"`
	GameID           string     `gorm:"type:uuid;not null;uniqueIndex" json:"game_id"`
	Status           string     `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	PlatformFeeCents int64      `gorm:"default:0" json:"platform_fee_cents"`
	PrizePoolCents   int64      `gorm:"default:0" json:"prize_pool_cents"`
	AppliedAt        *time.Time `json:"applied_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
