package models

import (
	"time"

	"gorm.io/gorm"
)

// OptionLabel is one of the five answer options of a question.
type OptionLabel string

const (
	OptionA OptionLabel = "A"
	OptionB OptionLabel = "B"
	OptionC OptionLabel = "C"
	OptionD OptionLabel = "D"
	OptionE OptionLabel = "E"
)

func (o OptionLabel) Valid() bool {
	switch o {
	case OptionA, OptionB, OptionC, OptionD, OptionE:
		return true
	}
	return false
}

type DifficultyLevel string

const (
	DifficultyMedium   DifficultyLevel = "medium"
	DifficultyHard     DifficultyLevel = "hard"
	DifficultyVeryHard DifficultyLevel = "very_hard"
)

// difficultyOrder fixes the display severity order: medium < hard < very_hard.
var difficultyOrder = map[DifficultyLevel]int{
	DifficultyMedium:   0,
	DifficultyHard:     1,
	DifficultyVeryHard: 2,
}

// DifficultyRank returns the severity position of d, unknown values sort first.
func DifficultyRank(d DifficultyLevel) int {
	return difficultyOrder[d]
}

func (d DifficultyLevel) Valid() bool {
	_, ok := difficultyOrder[d]
	return ok
}

type Question struct {
	ID            string          `json:"id" gorm:"primaryKey;size:36"`
	Stem          string          `json:"stem" gorm:"not null;type:text" validate:"required"`
	OptionA       string          `json:"option_a" gorm:"not null;type:text"`
	OptionB       string          `json:"option_b" gorm:"not null;type:text"`
	OptionC       string          `json:"option_c" gorm:"not null;type:text"`
	OptionD       string          `json:"option_d" gorm:"not null;type:text"`
	OptionE       string          `json:"option_e" gorm:"not null;type:text"`
	CorrectAnswer OptionLabel     `json:"correct_answer" gorm:"not null;size:1" validate:"required,oneof=A B C D E"`
	Explanation   string          `json:"explanation" gorm:"type:text"`
	LearningPoint *string         `json:"learning_point" gorm:"type:text"`
	Subtopic      string          `json:"subtopic" gorm:"not null;size:200;index" validate:"required"`
	Difficulty    DifficultyLevel `json:"difficulty" gorm:"not null;size:20;index" validate:"required,oneof=medium hard very_hard"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Question) TableName() string {
	return "questions"
}

// ExamQuestion is the candidate-facing view of a question during an
// in-progress session. The correct answer and explanation are withheld
// until results.
type ExamQuestion struct {
	ID         string          `json:"id"`
	Stem       string          `json:"stem"`
	OptionA    string          `json:"option_a"`
	OptionB    string          `json:"option_b"`
	OptionC    string          `json:"option_c"`
	OptionD    string          `json:"option_d"`
	OptionE    string          `json:"option_e"`
	Subtopic   string          `json:"subtopic"`
	Difficulty DifficultyLevel `json:"difficulty"`
}

// ExamView strips the fields a candidate must not see mid-exam.
func (q *Question) ExamView() ExamQuestion {
	return ExamQuestion{
		ID:         q.ID,
		Stem:       q.Stem,
		OptionA:    q.OptionA,
		OptionB:    q.OptionB,
		OptionC:    q.OptionC,
		OptionD:    q.OptionD,
		OptionE:    q.OptionE,
		Subtopic:   q.Subtopic,
		Difficulty: q.Difficulty,
	}
}

// SubtopicInfo describes one subtopic of the catalog with its question count.
type SubtopicInfo struct {
	Name          string `json:"name"`
	QuestionCount int    `json:"question_count"`
}
