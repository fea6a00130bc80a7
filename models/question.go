package models

import "time"

// Level groups questions by difficulty. Content management (seeding,
// curriculum) happens in a separate admin service; this table is read-only
// from the engine's point of view.
type Level struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	Name       string `gorm:"not null" json:"name"`
	Difficulty int    `gorm:"default:1" json:"difficulty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`

	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:LevelID"`
}

// Question is one multiple-choice question with its authoritative answer.
type Question struct {
	ID            string `gorm:"primaryKey;type:uuid" json:"id"`
	LevelID       string `gorm:"index;not null" json:"level_id"`
	Text          string `gorm:"type:text;not null" json:"text"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectOption string `gorm:"type:varchar(1);not null" json:"-"` // "A".."D", never serialized to players
	TimeLimitSecs int    `gorm:"default:30" json:"time_limit_secs"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// QuestionView is the answer-free shape returned to players on create/join.
type QuestionView struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	TimeLimitSecs int    `json:"time_limit_secs"`
}

// View strips the correct option.
func (q Question) View() QuestionView {
	return QuestionView{
		ID:            q.ID,
		Text:          q.Text,
		OptionA:       q.OptionA,
		OptionB:       q.OptionB,
		OptionC:       q.OptionC,
		OptionD:       q.OptionD,
		TimeLimitSecs: q.TimeLimitSecs,
	}
}
