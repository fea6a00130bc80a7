package services

import (
	"fmt"
	"testing"

	"quiz-settlement-system/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "4321"

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	// One connection so every session sees the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Level{},
		&models.Question{},
		&models.Game{},
		&models.Participant{},
		&models.ParticipantAnswer{},
		&models.WalletTransaction{},
		&models.Settlement{},
	); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

func newTestServices(db *gorm.DB) (*GameService, *SettlementService) {
	notifier := NewLogNotifier()
	ledger := NewLedgerService()
	pool := NewQuestionPoolService(db)
	stake := NewStakeService(ledger, NewBcryptSecrets())
	game := NewGameService(db, stake, pool, notifier)
	settlement := NewSettlementService(db, ledger, pool, notifier)
	return game, settlement
}

func createTestUser(t *testing.T, db *gorm.DB, balanceCents int64) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testSecret), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash secret: %v", err)
	}
	user := models.User{
		ID:            uuid.NewString(),
		Username:      "player-" + uuid.NewString()[:8],
		BalanceCents:  balanceCents,
		TxnSecretHash: string(hash),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// createTestLevel seeds a level with n questions whose correct option is
// always "A".
func createTestLevel(t *testing.T, db *gorm.DB, n int) models.Level {
	t.Helper()
	level := models.Level{ID: uuid.NewString(), Name: "General Knowledge", Difficulty: 2}
	if err := db.Create(&level).Error; err != nil {
		t.Fatalf("failed to create test level: %v", err)
	}
	for i := 0; i < n; i++ {
		q := models.Question{
			ID:            uuid.NewString(),
			LevelID:       level.ID,
			Text:          fmt.Sprintf("Question %d", i+1),
			OptionA:       "right",
			OptionB:       "wrong",
			OptionC:       "wrong",
			OptionD:       "wrong",
			CorrectOption: "A",
			TimeLimitSecs: 30,
		}
		if err := db.Create(&q).Error; err != nil {
			t.Fatalf("failed to create test question: %v", err)
		}
	}
	return level
}

// answersFor builds a submission for every question of the game, all the
// given option.
func answersFor(game *models.Game, option string, perQuestionMs int64) []AnswerSubmission {
	ids := game.QuestionIDList()
	answers := make([]AnswerSubmission, len(ids))
	for i, id := range ids {
		answers[i] = AnswerSubmission{QuestionID: id, SelectedOption: option, TimeTakenMs: perQuestionMs}
	}
	return answers
}

// answersWithWrong answers the first `wrong` questions incorrectly and the
// rest correctly.
func answersWithWrong(game *models.Game, wrong int, perQuestionMs int64) []AnswerSubmission {
	ids := game.QuestionIDList()
	answers := make([]AnswerSubmission, len(ids))
	for i, id := range ids {
		opt := "A"
		if i < wrong {
			opt = "B"
		}
		answers[i] = AnswerSubmission{QuestionID: id, SelectedOption: opt, TimeTakenMs: perQuestionMs}
	}
	return answers
}

func userBalance(t *testing.T, db *gorm.DB, userID string) int64 {
	t.Helper()
	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		t.Fatalf("failed to load user %s: %v", userID, err)
	}
	return user.BalanceCents
}
