package models

import (
	"strings"
	"time"
)

// Game modes
const (
	ModeSolo   = "solo"
	ModeDuel   = "duel"
	ModeLeague = "league"
)

// Game statuses
const (
	GameStatusWaiting    = "waiting"
	GameStatusInProgress = "in_progress"
	GameStatusCompleted  = "completed"
)

// Mode-specific question caps and population bounds
const (
	SoloDuelQuestionCap = 10
	LeagueQuestionCap   = 15
	MinLevelQuestions   = 5
	LeagueMinPlayers    = 3
	LeagueMaxPlayers    = 50
)

// Game is one wagering session. Rows are never deleted; a completed game is
// the immutable audit record of its settlement.
type Game struct {
	ID               string `gorm:"primaryKey;type:uuid" json:"id"`
	Mode             string `gorm:"type:varchar(16);not null;index" json:"mode"`
	LevelID          string `gorm:"type:uuid;not null" json:"level_id"`
	EntryAmountCents int64  `gorm:"not null" json:"entry_amount_cents"`
	Status           string `gorm:"type:varchar(16);not null;default:'waiting';index" json:"status"`
	MatchCode        string `gorm:"type:varchar(12);index" json:"match_code,omitempty"` // empty for solo
	MaxPlayers       int    `gorm:"not null" json:"max_players"`
	CreatedBy        string `gorm:"type:uuid;not null;index" json:"created_by"`

	// Frozen at creation: every participant is graded against this exact set.
	QuestionIDs string `gorm:"type:text;not null" json:"question_ids"`

	// Audit fields, written once at settlement.
	PlatformFeeCents int64 `gorm:"default:0" json:"platform_fee_cents"`
	PrizePoolCents   int64 `gorm:"default:0" json:"prize_pool_cents"`

	// Optimistic concurrency stamp; every state transition is conditioned on it.
	Version int `gorm:"not null;default:0" json:"-"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Participants []Participant `json:"participants,omitempty" gorm:"foreignKey:GameID"`
}

// QuestionIDList splits the frozen comma-separated id set.
func (g *Game) QuestionIDList() []string {
	if g.QuestionIDs == "" {
		return nil
	}
	return strings.Split(g.QuestionIDs, ",")
}

// Participant is one player's membership and result in a game. CompletedAt is
// the idempotency guard: it transitions nil -> timestamp exactly once, and its
// presence is the single source of truth for "already graded".
type Participant struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	GameID string `gorm:"type:uuid;not null;uniqueIndex:idx_game_user" json:"game_id"`
	UserID string `gorm:"type:uuid;not null;uniqueIndex:idx_game_user" json:"user_id"`

	Score       int   `gorm:"default:0" json:"score"`
	TotalTimeMs int64 `gorm:"default:0" json:"total_time_ms"`
	IsWinner    bool  `gorm:"default:false" json:"is_winner"`
	PayoutCents int64 `gorm:"default:0" json:"payout_cents"`

	JoinedAt    time.Time  `json:"joined_at" gorm:"autoCreateTime"`
	CompletedAt *time.Time `gorm:"index" json:"completed_at,omitempty"`

	Answers []ParticipantAnswer `json:"answers,omitempty" gorm:"foreignKey:ParticipantID"`
}

// ParticipantAnswer is one graded answer row, immutable once written.
type ParticipantAnswer struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ParticipantID  string `gorm:"type:uuid;not null;index" json:"participant_id"`
	GameID         string `gorm:"type:uuid;not null;index" json:"game_id"`
	UserID         string `gorm:"type:uuid;not null" json:"user_id"`
	QuestionID     string `gorm:"type:uuid;not null" json:"question_id"`
	SelectedOption string `gorm:"type:varchar(1)" json:"selected_option"`
	IsCorrect      bool   `gorm:"default:false" json:"is_correct"`
	TimeTakenMs    int64  `gorm:"default:0" json:"time_taken_ms"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
