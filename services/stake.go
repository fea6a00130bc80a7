package services

import (
	"errors"
	"fmt"

	"quiz-settlement-system/models"
	"quiz-settlement-system/utils"

	"gorm.io/gorm"
)

// StakeService validates a player's eligibility to stake and performs the
// debit plus the stake transaction record as one unit on the caller's
// transaction handle. It is the only balance-debiting path in the engine.
type StakeService struct {
	Ledger  *LedgerService
	Secrets Secrets
}

func NewStakeService(ledger *LedgerService, secrets Secrets) *StakeService {
	return &StakeService{Ledger: ledger, Secrets: secrets}
}

// StakeReceipt records a successful debit.
type StakeReceipt struct {
	UserID      string `json:"user_id"`
	AmountCents int64  `json:"amount_cents"`
}

// Authorize runs the full eligibility chain and then the conditional debit.
// Any failure before the debit leaves the balance untouched; the debit itself
// is conditional on sufficient funds at commit time, so two concurrent stakes
// cannot both pass the precheck and both succeed.
func (s *StakeService) Authorize(tx *gorm.DB, userID string, amountCents int64, secret string, gameID string) (*StakeReceipt, error) {
	var user models.User
	if err := tx.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.IsSuspended {
		return nil, ErrAccountSuspended
	}
	if user.BalanceCents < amountCents {
		return nil, ErrInsufficientBalance
	}
	if err := s.Secrets.Verify(tx, userID, secret); err != nil {
		return nil, err
	}

	if err := s.Ledger.Debit(tx, userID, amountCents); err != nil {
		return nil, err
	}
	desc := fmt.Sprintf("Entry stake %.2f", utils.FromCents(amountCents))
	if err := s.Ledger.RecordTransaction(tx, userID, models.TransactionKindStake, -amountCents, &gameID, nil, desc); err != nil {
		return nil, err
	}

	return &StakeReceipt{UserID: userID, AmountCents: amountCents}, nil
}
