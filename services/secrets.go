package services

import (
	"errors"
	"fmt"

	"quiz-settlement-system/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Secrets answers "does this candidate match the user's transaction secret".
// The engine only ever consumes the boolean; hash storage and rotation belong
// to the account service.
type Secrets interface {
	Verify(tx *gorm.DB, userID, candidate string) error
}

// BcryptSecrets verifies candidates against User.TxnSecretHash.
type BcryptSecrets struct{}

func NewBcryptSecrets() *BcryptSecrets {
	return &BcryptSecrets{}
}

func (s *BcryptSecrets) Verify(tx *gorm.DB, userID, candidate string) error {
	var user models.User
	if err := tx.Select("txn_secret_hash").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load user secret: %w", err)
	}
	if user.TxnSecretHash == "" {
		return ErrSecretNotSet
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.TxnSecretHash), []byte(candidate)); err != nil {
		return ErrInvalidSecret
	}
	return nil
}
