package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"quiz-settlement-system/models"
	"quiz-settlement-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GameService owns the game state machine: creation, joining and starting.
// Mode-specific population rules live here; settlement lives in
// SettlementService.
type GameService struct {
	DB       *gorm.DB
	Stake    *StakeService
	Pool     *QuestionPoolService
	Notifier Notifier
}

func NewGameService(db *gorm.DB, stake *StakeService, pool *QuestionPoolService, notifier Notifier) *GameService {
	return &GameService{DB: db, Stake: stake, Pool: pool, Notifier: notifier}
}

// Create validates the level, freezes the question set, stakes the creator
// and creates the game plus the creator's participant row in one transaction.
// Solo games start immediately; duel and league wait for joins.
func (s *GameService) Create(mode, levelID string, entryCents int64, creatorID, secret string, maxPlayers int) (*models.Game, []models.Question, error) {
	switch mode {
	case models.ModeSolo:
		maxPlayers = 1
	case models.ModeDuel:
		maxPlayers = 2
	case models.ModeLeague:
		if maxPlayers < models.LeagueMinPlayers || maxPlayers > models.LeagueMaxPlayers {
			return nil, nil, ErrInvalidMaxPlayers
		}
	default:
		return nil, nil, ErrGameModeMismatch
	}

	questionCap := models.SoloDuelQuestionCap
	if mode == models.ModeLeague {
		questionCap = models.LeagueQuestionCap
	}

	var game models.Game
	var questions []models.Question
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		questions, err = s.Pool.PickForLevel(tx, levelID, questionCap)
		if err != nil {
			return err
		}

		ids := make([]string, len(questions))
		for i, q := range questions {
			ids[i] = q.ID
		}

		status := models.GameStatusWaiting
		if mode == models.ModeSolo {
			status = models.GameStatusInProgress
		}

		matchCode := ""
		if mode != models.ModeSolo {
			matchCode, err = utils.NewMatchCode()
			if err != nil {
				return err
			}
		}

		game = models.Game{
			ID:               uuid.NewString(),
			Mode:             mode,
			LevelID:          levelID,
			EntryAmountCents: entryCents,
			Status:           status,
			MatchCode:        matchCode,
			MaxPlayers:       maxPlayers,
			CreatedBy:        creatorID,
			QuestionIDs:      strings.Join(ids, ","),
		}
		if err := tx.Create(&game).Error; err != nil {
			return fmt.Errorf("failed to create game: %w", err)
		}

		if _, err := s.Stake.Authorize(tx, creatorID, entryCents, secret, game.ID); err != nil {
			return err
		}

		participant := models.Participant{
			ID:     uuid.NewString(),
			GameID: game.ID,
			UserID: creatorID,
		}
		if err := tx.Create(&participant).Error; err != nil {
			return fmt.Errorf("failed to create participant: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &game, questions, nil
}

// Join admits a player to a waiting duel or league game by match code. The
// joiner is staked before the participant row is created; reaching the duel
// population auto-starts the game, a full league still waits for Start.
func (s *GameService) Join(mode, matchCode, joinerID, secret string) (*models.Game, []models.Question, error) {
	var game models.Game
	var questions []models.Question
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&game, "match_code = ?", matchCode).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGameNotFound
			}
			return fmt.Errorf("failed to load game: %w", err)
		}
		if game.Mode != mode {
			return ErrGameModeMismatch
		}
		if game.Status != models.GameStatusWaiting {
			return ErrGameNotJoinable
		}

		var count int64
		if err := tx.Model(&models.Participant{}).Where("game_id = ?", game.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count participants: %w", err)
		}
		if int(count) >= game.MaxPlayers {
			return ErrGameFull
		}

		var existing models.Participant
		if err := tx.Where("game_id = ? AND user_id = ?", game.ID, joinerID).First(&existing).Error; err == nil {
			return ErrAlreadyJoined
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check membership: %w", err)
		}

		if _, err := s.Stake.Authorize(tx, joinerID, game.EntryAmountCents, secret, game.ID); err != nil {
			return err
		}

		participant := models.Participant{
			ID:     uuid.NewString(),
			GameID: game.ID,
			UserID: joinerID,
		}
		if err := tx.Create(&participant).Error; err != nil {
			return fmt.Errorf("failed to create participant: %w", err)
		}

		// Every join bumps the version so two joins racing for the last slot
		// cannot both commit against the same observed population.
		newStatus := game.Status
		if game.Mode == models.ModeDuel && int(count)+1 == game.MaxPlayers {
			newStatus = models.GameStatusInProgress
		}
		if err := transitionGame(tx, &game, newStatus); err != nil {
			return err
		}

		var err error
		questions, err = s.Pool.QuestionsByIDs(tx, game.QuestionIDList())
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	if game.Status == models.GameStatusInProgress {
		go s.Notifier.Notify(game.CreatedBy, "Opponent joined", "Your duel is on — good luck!", "info")
	}
	return &game, questions, nil
}

// Start moves a league game from waiting to in progress. Only the earliest
// joined participant (the creator) may start, and only with three or more
// players staked.
func (s *GameService) Start(gameID, requesterID string) (*models.Game, error) {
	var game models.Game
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&game, "id = ?", gameID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGameNotFound
			}
			return fmt.Errorf("failed to load game: %w", err)
		}
		if game.Mode != models.ModeLeague {
			return ErrGameModeMismatch
		}
		if game.Status != models.GameStatusWaiting {
			return ErrGameAlreadyStarted
		}

		var participants []models.Participant
		if err := tx.Where("game_id = ?", gameID).Order("joined_at ASC").Find(&participants).Error; err != nil {
			return fmt.Errorf("failed to load participants: %w", err)
		}
		if len(participants) == 0 || participants[0].UserID != requesterID {
			return ErrNotCreator
		}
		if len(participants) < models.LeagueMinPlayers {
			return ErrNotEnoughPlayers
		}

		return transitionGame(tx, &game, models.GameStatusInProgress)
	})
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// transitionGame applies a status change (or a bare version bump when the
// status is unchanged) conditioned on the version read at the start of the
// caller's critical section. Zero rows affected means a concurrent writer got
// there first.
func transitionGame(tx *gorm.DB, game *models.Game, newStatus string) error {
	result := tx.Model(&models.Game{}).
		Where("id = ? AND version = ?", game.ID, game.Version).
		Updates(map[string]interface{}{
			"status":  newStatus,
			"version": game.Version + 1,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update game state: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	game.Status = newStatus
	game.Version++
	return nil
}

// --- Fiber handlers ---

type createGameRequest struct {
	LevelID     string  `json:"level_id"`
	EntryAmount float64 `json:"entry_amount"`
	Secret      string  `json:"secret"`
	MaxPlayers  int     `json:"max_players"` // league only
}

type joinGameRequest struct {
	MatchCode string `json:"match_code"`
	Secret    string `json:"secret"`
}

// CreateGame handles POST /:mode/games.
func (s *GameService) CreateGame(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	mode := c.Params("mode")

	var req createGameRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.LevelID == "" || req.EntryAmount <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "level_id and a positive entry_amount are required"})
	}

	game, questions, err := s.Create(mode, req.LevelID, utils.ToCents(req.EntryAmount), userID, req.Secret, req.MaxPlayers)
	if err != nil {
		return c.Status(StatusForError(err)).JSON(fiber.Map{"error": err.Error()})
	}

	log.Printf("🎮 Game %s created: mode=%s entry=%.2f by %s", game.ID, game.Mode, req.EntryAmount, userID)
	return c.Status(201).JSON(fiber.Map{
		"game":      game,
		"questions": questionViews(questions),
	})
}

// JoinGame handles POST /:mode/games/join.
func (s *GameService) JoinGame(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	mode := c.Params("mode")
	if mode == models.ModeSolo {
		return c.Status(400).JSON(fiber.Map{"error": "solo games cannot be joined"})
	}

	var req joinGameRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.MatchCode == "" {
		return c.Status(400).JSON(fiber.Map{"error": "match_code is required"})
	}

	game, questions, err := s.Join(mode, strings.ToUpper(strings.TrimSpace(req.MatchCode)), userID, req.Secret)
	if err != nil {
		return c.Status(StatusForError(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"game":      game,
		"questions": questionViews(questions),
	})
}

// StartGame handles POST /league/games/:id/start.
func (s *GameService) StartGame(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	gameID := c.Params("id")

	game, err := s.Start(gameID, userID)
	if err != nil {
		return c.Status(StatusForError(err)).JSON(fiber.Map{"error": err.Error()})
	}

	log.Printf("🏁 League game %s started by %s", game.ID, userID)
	return c.JSON(fiber.Map{"game": game})
}

func questionViews(questions []models.Question) []models.QuestionView {
	views := make([]models.QuestionView, len(questions))
	for i, q := range questions {
		views[i] = q.View()
	}
	return views
}
