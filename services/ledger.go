package services

import (
	"fmt"

	"quiz-settlement-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LedgerService is the balance store. Every method takes the caller's *gorm.DB
// handle explicitly so that all reads and writes of one settlement step run on
// the same transaction; nothing here touches an ambient client.
type LedgerService struct{}

func NewLedgerService() *LedgerService {
	return &LedgerService{}
}

// Debit conditionally decrements a user's balance. The WHERE guard makes the
// decrement atomic: two concurrent stakes can never over-draw the same balance
// because the second one finds the condition false at commit time.
func (s *LedgerService) Debit(tx *gorm.DB, userID string, amountCents int64) error {
	if amountCents <= 0 {
		return fmt.Errorf("debit amount must be positive, got %d", amountCents)
	}
	result := tx.Model(&models.User{}).
		Where("id = ? AND balance_cents >= ?", userID, amountCents).
		Update("balance_cents", gorm.Expr("balance_cents - ?", amountCents))
	if result.Error != nil {
		return fmt.Errorf("debit failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientBalance
	}
	return nil
}

// Credit increments a user's balance.
func (s *LedgerService) Credit(tx *gorm.DB, userID string, amountCents int64) error {
	if amountCents <= 0 {
		return fmt.Errorf("credit amount must be positive, got %d", amountCents)
	}
	result := tx.Model(&models.User{}).
		Where("id = ?", userID).
		Update("balance_cents", gorm.Expr("balance_cents + ?", amountCents))
	if result.Error != nil {
		return fmt.Errorf("credit failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// RecordTransaction appends a ledger entry. BalanceAfterCents is read back on
// the same handle so the recorded balance is the post-write one.
func (s *LedgerService) RecordTransaction(tx *gorm.DB, userID string, kind models.TransactionKind, amountCents int64, gameID, settlementID *string, description string) error {
	var user models.User
	if err := tx.Select("balance_cents").First(&user, "id = ?", userID).Error; err != nil {
		return fmt.Errorf("failed to read balance for transaction record: %w", err)
	}
	record := models.WalletTransaction{
		ID:                uuid.NewString(),
		UserID:            userID,
		Kind:              kind,
		AmountCents:       amountCents,
		BalanceAfterCents: user.BalanceCents,
		GameID:            gameID,
		SettlementID:      settlementID,
		Description:       description,
	}
	if err := tx.Create(&record).Error; err != nil {
		return fmt.Errorf("failed to create transaction record: %w", err)
	}
	return nil
}
