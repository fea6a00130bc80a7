package services

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"quiz-settlement-system/models"
	"quiz-settlement-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SettlementService serializes submissions per game, decides when a game is
// done, and applies the payout exactly once. Two independent guards protect
// the money path: an in-process mutex keyed by game id, and conditional
// writes (completed_at IS NULL, version = ?) that hold across instances.
type SettlementService struct {
	DB       *gorm.DB
	Ledger   *LedgerService
	Pool     *QuestionPoolService
	Notifier Notifier

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewSettlementService(db *gorm.DB, ledger *LedgerService, pool *QuestionPoolService, notifier Notifier) *SettlementService {
	return &SettlementService{
		DB:       db,
		Ledger:   ledger,
		Pool:     pool,
		Notifier: notifier,
		locks:    make(map[string]*sync.Mutex),
	}
}

// gameLock returns the mutex for one game; different games settle
// concurrently with no cross-locking.
func (s *SettlementService) gameLock(gameID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[gameID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[gameID] = l
	}
	return l
}

// SubmissionOutcome is what a submitting player gets back.
type SubmissionOutcome struct {
	Score          int   `json:"score"`
	TotalQuestions int   `json:"total_questions"`
	GameComplete   bool  `json:"game_complete"`
	PayoutCents    int64 `json:"payout_cents"`
	IsWinner       bool  `json:"is_winner"`
}

// Submit grades the caller's answers, records the result, and — when the
// caller is the last participant to finish — runs the settlement. The whole
// sequence runs under the per-game lock and a single DB transaction, so the
// "all done" check and the one-time payout can never be evaluated by two
// submissions concurrently.
func (s *SettlementService) Submit(gameID, userID, expectedMode string, answers []AnswerSubmission, totalTimeMs int64) (*SubmissionOutcome, error) {
	lock := s.gameLock(gameID)
	lock.Lock()
	defer lock.Unlock()

	outcome := &SubmissionOutcome{}
	var plan *PayoutPlan
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var game models.Game
		if err := tx.First(&game, "id = ?", gameID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGameNotFound
			}
			return fmt.Errorf("failed to load game: %w", err)
		}
		if game.Mode != expectedMode {
			return ErrGameModeMismatch
		}
		if game.Status != models.GameStatusInProgress {
			return ErrGameNotInProgress
		}

		var participant models.Participant
		if err := tx.Where("game_id = ? AND user_id = ?", gameID, userID).First(&participant).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotAParticipant
			}
			return fmt.Errorf("failed to load participant: %w", err)
		}
		if participant.CompletedAt != nil {
			return ErrAlreadySubmitted
		}

		questions, err := s.Pool.QuestionsByIDs(tx, game.QuestionIDList())
		if err != nil {
			return err
		}
		// A submission may answer each frozen question at most once; anything
		// longer is malformed regardless of content.
		if len(answers) > len(questions) {
			return ErrTooManyAnswers
		}

		graded := Grade(questions, answers)
		outcome.Score = graded.Score
		outcome.TotalQuestions = len(questions)

		// Re-checked guard: the conditional write closes the race window
		// between two near-simultaneous submissions by the same user.
		now := time.Now()
		result := tx.Model(&models.Participant{}).
			Where("id = ? AND completed_at IS NULL", participant.ID).
			Updates(map[string]interface{}{
				"score":         graded.Score,
				"total_time_ms": totalTimeMs,
				"completed_at":  now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to record result: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrAlreadySubmitted
		}

		for _, a := range graded.Answers {
			row := models.ParticipantAnswer{
				ID:             uuid.NewString(),
				ParticipantID:  participant.ID,
				GameID:         gameID,
				UserID:         userID,
				QuestionID:     a.QuestionID,
				SelectedOption: a.SelectedOption,
				IsCorrect:      a.IsCorrect,
				TimeTakenMs:    a.TimeTakenMs,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to record answer: %w", err)
			}
		}

		var participants []models.Participant
		if err := tx.Where("game_id = ?", gameID).Order("joined_at ASC").Find(&participants).Error; err != nil {
			return fmt.Errorf("failed to load participants: %w", err)
		}
		for _, p := range participants {
			if p.CompletedAt == nil {
				return nil // waiting for others
			}
		}

		plan, err = s.settle(tx, &game, participants, len(questions))
		if err != nil {
			return err
		}
		outcome.GameComplete = true
		for _, award := range plan.Awards {
			if award.UserID == userID {
				outcome.PayoutCents = award.PayoutCents
				outcome.IsWinner = award.IsWinner
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if plan != nil {
		s.notifySettled(plan)
	}
	return outcome, nil
}

// settle computes and applies the payout for a fully-submitted game. Caller
// holds the per-game lock and the enclosing transaction. The pending
// settlement row goes in before any credit; the version-conditioned close is
// the cross-instance fence that makes the payout exactly-once.
func (s *SettlementService) settle(tx *gorm.DB, game *models.Game, participants []models.Participant, totalQuestions int) (*PayoutPlan, error) {
	var existing models.Settlement
	if err := tx.Where("game_id = ?", game.ID).First(&existing).Error; err == nil {
		// Another writer already settled this game.
		return nil, ErrVersionConflict
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check settlement: %w", err)
	}

	settlement := models.Settlement{
		ID:     uuid.NewString(),
		GameID: game.ID,
		Status: models.SettlementStatusPending,
	}
	if err := tx.Create(&settlement).Error; err != nil {
		return nil, fmt.Errorf("failed to create settlement: %w", err)
	}

	results := make([]ParticipantResult, len(participants))
	for i, p := range participants {
		results[i] = ParticipantResult{UserID: p.UserID, Score: p.Score, TotalTimeMs: p.TotalTimeMs}
	}
	plan := ComputePayouts(game.Mode, game.EntryAmountCents, totalQuestions, results)

	for _, award := range plan.Awards {
		result := tx.Model(&models.Participant{}).
			Where("game_id = ? AND user_id = ?", game.ID, award.UserID).
			Updates(map[string]interface{}{
				"is_winner":    award.IsWinner,
				"payout_cents": award.PayoutCents,
			})
		if result.Error != nil {
			return nil, fmt.Errorf("failed to record award: %w", result.Error)
		}
		if award.PayoutCents <= 0 {
			continue
		}
		if err := s.Ledger.Credit(tx, award.UserID, award.PayoutCents); err != nil {
			return nil, err
		}
		desc := fmt.Sprintf("Prize payout %.2f (%s)", utils.FromCents(award.PayoutCents), game.Mode)
		if err := s.Ledger.RecordTransaction(tx, award.UserID, models.TransactionKindPayout, award.PayoutCents, &game.ID, &settlement.ID, desc); err != nil {
			return nil, err
		}
	}

	result := tx.Model(&models.Game{}).
		Where("id = ? AND version = ? AND status = ?", game.ID, game.Version, models.GameStatusInProgress).
		Updates(map[string]interface{}{
			"status":             models.GameStatusCompleted,
			"platform_fee_cents": plan.PlatformFeeCents,
			"prize_pool_cents":   plan.PrizePoolCents,
			"version":            game.Version + 1,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to close game: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrVersionConflict
	}

	now := time.Now()
	if err := tx.Model(&settlement).Updates(map[string]interface{}{
		"status":             models.SettlementStatusApplied,
		"platform_fee_cents": plan.PlatformFeeCents,
		"prize_pool_cents":   plan.PrizePoolCents,
		"applied_at":         now,
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to mark settlement applied: %w", err)
	}

	log.Printf("💰 Game %s settled: fee=%d pool=%d participants=%d", game.ID, plan.PlatformFeeCents, plan.PrizePoolCents, len(participants))
	return &plan, nil
}

// SettleIfComplete settles a game whose participants have all submitted but
// whose settlement never committed (crash between grading and settlement).
// Safe to call repeatedly; an already-settled or still-running game is a
// no-op.
func (s *SettlementService) SettleIfComplete(gameID string) (bool, error) {
	lock := s.gameLock(gameID)
	lock.Lock()
	defer lock.Unlock()

	var plan *PayoutPlan
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var game models.Game
		if err := tx.First(&game, "id = ?", gameID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGameNotFound
			}
			return fmt.Errorf("failed to load game: %w", err)
		}
		if game.Status != models.GameStatusInProgress {
			return nil
		}

		var participants []models.Participant
		if err := tx.Where("game_id = ?", gameID).Order("joined_at ASC").Find(&participants).Error; err != nil {
			return fmt.Errorf("failed to load participants: %w", err)
		}
		if len(participants) == 0 {
			return nil
		}
		for _, p := range participants {
			if p.CompletedAt == nil {
				return nil
			}
		}

		var err error
		plan, err = s.settle(tx, &game, participants, len(game.QuestionIDList()))
		return err
	})
	if err != nil {
		return false, err
	}
	if plan != nil {
		s.notifySettled(plan)
		return true, nil
	}
	return false, nil
}

func (s *SettlementService) notifySettled(plan *PayoutPlan) {
	for _, award := range plan.Awards {
		if !award.IsWinner {
			continue
		}
		go s.Notifier.Notify(award.UserID, "You won!",
			fmt.Sprintf("Your prize of %.2f has been credited.", utils.FromCents(award.PayoutCents)), "success")
	}
}

// --- Fiber handlers ---

type submitRequest struct {
	Answers          []AnswerSubmission `json:"answers"`
	TotalTimeSeconds float64            `json:"total_time_seconds"`
}

// SubmitAnswers handles POST /:mode/games/:id/submit.
func (s *SettlementService) SubmitAnswers(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	mode := c.Params("mode")
	gameID := c.Params("id")

	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if len(req.Answers) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "answers are required"})
	}
	if req.TotalTimeSeconds < 0 {
		return c.Status(400).JSON(fiber.Map{"error": "total_time_seconds must not be negative"})
	}

	outcome, err := s.Submit(gameID, userID, mode, req.Answers, int64(math.Round(req.TotalTimeSeconds*1000)))
	if err != nil {
		return c.Status(StatusForError(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(outcome)
}

// participantView hides other players' results until the game completes.
type participantView struct {
	UserID      string     `json:"user_id"`
	JoinedAt    time.Time  `json:"joined_at"`
	Completed   bool       `json:"completed"`
	Score       *int       `json:"score,omitempty"`
	TotalTimeMs *int64     `json:"total_time_ms,omitempty"`
	IsWinner    *bool      `json:"is_winner,omitempty"`
	PayoutCents *int64     `json:"payout_cents,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// GameStatus handles GET /games/:id. Scores and payouts of other
// participants become visible only once the game is completed; the caller
// always sees their own.
func (s *SettlementService) GameStatus(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	gameID := c.Params("id")

	var game models.Game
	if err := s.DB.First(&game, "id = ?", gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": ErrGameNotFound.Error()})
		}
		log.Printf("ERROR fetching game %s: %v", gameID, err)
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	var participants []models.Participant
	if err := s.DB.Where("game_id = ?", gameID).Order("joined_at ASC").Find(&participants).Error; err != nil {
		log.Printf("ERROR fetching participants for %s: %v", gameID, err)
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	completed := game.Status == models.GameStatusCompleted
	views := make([]participantView, len(participants))
	for i, p := range participants {
		v := participantView{
			UserID:    p.UserID,
			JoinedAt:  p.JoinedAt,
			Completed: p.CompletedAt != nil,
		}
		if completed || p.UserID == userID {
			v.Score = &p.Score
			v.TotalTimeMs = &p.TotalTimeMs
			v.CompletedAt = p.CompletedAt
		}
		if completed {
			v.IsWinner = &p.IsWinner
			v.PayoutCents = &p.PayoutCents
		}
		views[i] = v
	}

	resp := fiber.Map{
		"id":           game.ID,
		"mode":         game.Mode,
		"status":       game.Status,
		"max_players":  game.MaxPlayers,
		"entry_amount": utils.FromCents(game.EntryAmountCents),
		"participants": views,
	}
	if completed {
		resp["platform_fee"] = utils.FromCents(game.PlatformFeeCents)
		resp["prize_pool_distributed"] = utils.FromCents(game.PrizePoolCents)
	}
	return c.JSON(resp)
}
