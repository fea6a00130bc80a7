package services

import (
	"errors"
	"fmt"
	"math/rand"

	"quiz-settlement-system/models"

	"gorm.io/gorm"
)

// QuestionPoolService supplies a shuffled, size-bounded question set for a
// level. Pure read; the question bank itself is managed elsewhere.
type QuestionPoolService struct {
	DB *gorm.DB
}

func NewQuestionPoolService(db *gorm.DB) *QuestionPoolService {
	return &QuestionPoolService{DB: db}
}

// PickForLevel returns up to cap questions for the level in shuffled order.
// Levels with fewer than MinLevelQuestions questions are not playable.
func (s *QuestionPoolService) PickForLevel(tx *gorm.DB, levelID string, cap int) ([]models.Question, error) {
	if tx == nil {
		tx = s.DB
	}
	var level models.Level
	if err := tx.First(&level, "id = ?", levelID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLevelNotFound
		}
		return nil, fmt.Errorf("failed to load level: %w", err)
	}

	var questions []models.Question
	if err := tx.Where("level_id = ?", levelID).Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	if len(questions) < models.MinLevelQuestions {
		return nil, ErrInsufficientQuestions
	}

	rand.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
	if len(questions) > cap {
		questions = questions[:cap]
	}
	return questions, nil
}

// QuestionsByIDs loads the frozen question set of a game, preserving the
// order recorded at creation time.
func (s *QuestionPoolService) QuestionsByIDs(tx *gorm.DB, ids []string) ([]models.Question, error) {
	if tx == nil {
		tx = s.DB
	}
	var questions []models.Question
	if err := tx.Where("id IN ?", ids).Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	byID := make(map[string]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	ordered := make([]models.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}
	return ordered, nil
}
