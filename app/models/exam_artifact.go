package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

const (
	QuestionMultipleChoice = "multiple_choice"
	QuestionTrueFalse      = "true_false"
	QuestionEssay          = "essay"
	ExamTypeMixed          = "mixed"
)

// Question is a single generated exam item.
type Question struct {
	Number        int      `json:"number"`
	Prompt        string   `json:"prompt"`
	Type          string   `json:"type"`
	Choices       []string `json:"choices,omitempty"`
	CorrectAnswer string   `json:"correctAnswer,omitempty"`
}

// ExamContent is the structured payload returned by the completion service.
// AnswerKey is keyed by the question number rendered as a decimal string.
type ExamContent struct {
	Title     string            `json:"title"`
	Questions []Question        `json:"questions"`
	AnswerKey map[string]string `json:"answerKey"`
}

// Value stores the content as a JSON column.
func (c ExamContent) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads the JSON column back.
func (c *ExamContent) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case nil:
		*c = ExamContent{}
		return nil
	default:
		return errors.New("exam content: unsupported column type")
	}
	return json.Unmarshal(raw, c)
}

// ExamArtifact is the persisted output of one successful generation. It is
// never updated after creation.
type ExamArtifact struct {
	ID            uint        `gorm:"primaryKey" json:"-"`
	UUID          string      `gorm:"type:char(36);uniqueIndex;not null" json:"id"`
	AccountID     uint        `gorm:"not null;index" json:"account_id"`
	Title         string      `gorm:"type:varchar(255);not null" json:"title"`
	Theme         string      `gorm:"type:varchar(255);not null" json:"theme"`
	Grade         string      `gorm:"type:varchar(100);not null" json:"grade"`
	QuestionCount int         `gorm:"not null" json:"question_count"`
	Type          string      `gorm:"type:varchar(32);not null" json:"type"`
	Content       ExamContent `gorm:"type:json;not null" json:"content"`
	CreatedAt     time.Time   `gorm:"autoCreateTime;index" json:"created_at"`
}
