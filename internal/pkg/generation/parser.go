package generation

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/ManuelReschke/ExamFox/app/models"
)

var multipleChoiceAnswers = map[string]bool{"A": true, "B": true, "C": true, "D": true}

var trueFalseAnswers = map[string]bool{"V": true, "F": true}

// ParseContent strictly decodes provider output into exam content. Unknown
// fields, trailing data and any schema violation are rejected.
func ParseContent(raw string) (*models.ExamContent, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, malformed("empty output")
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(trimmed)))
	dec.DisallowUnknownFields()

	var content models.ExamContent
	if err := dec.Decode(&content); err != nil {
		return nil, malformed("decode: %v", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, malformed("trailing data after JSON value")
	}

	if err := checkContent(&content); err != nil {
		return nil, err
	}
	return &content, nil
}

func checkContent(c *models.ExamContent) error {
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		return malformed("title is empty")
	}
	if len(c.Questions) == 0 {
		return malformed("no questions")
	}

	numbers := make(map[string]*models.Question, len(c.Questions))
	for i := range c.Questions {
		q := &c.Questions[i]
		if q.Number <= 0 {
			return malformed("question %d has non-positive number %d", i+1, q.Number)
		}
		key := strconv.Itoa(q.Number)
		if _, dup := numbers[key]; dup {
			return malformed("duplicate question number %d", q.Number)
		}
		numbers[key] = q

		if strings.TrimSpace(q.Prompt) == "" {
			return malformed("question %d has an empty prompt", q.Number)
		}
		q.CorrectAnswer = strings.ToUpper(strings.TrimSpace(q.CorrectAnswer))

		switch q.Type {
		case models.QuestionMultipleChoice:
			if len(q.Choices) != 4 {
				return malformed("question %d needs exactly 4 choices, got %d", q.Number, len(q.Choices))
			}
			for _, choice := range q.Choices {
				if strings.TrimSpace(choice) == "" {
					return malformed("question %d has an empty choice", q.Number)
				}
			}
			if !multipleChoiceAnswers[q.CorrectAnswer] {
				return malformed("question %d has invalid answer %q", q.Number, q.CorrectAnswer)
			}
		case models.QuestionTrueFalse:
			if len(q.Choices) != 0 {
				return malformed("question %d is true_false but has choices", q.Number)
			}
			if !trueFalseAnswers[q.CorrectAnswer] {
				return malformed("question %d has invalid answer %q", q.Number, q.CorrectAnswer)
			}
		case models.QuestionEssay:
			if len(q.Choices) != 0 {
				return malformed("question %d is essay but has choices", q.Number)
			}
		default:
			return malformed("question %d has unknown type %q", q.Number, q.Type)
		}
	}

	if len(c.AnswerKey) != len(numbers) {
		return malformed("answer key has %d entries for %d questions", len(c.AnswerKey), len(numbers))
	}
	for key, answer := range c.AnswerKey {
		q, ok := numbers[key]
		if !ok {
			return malformed("answer key references unknown question %q", key)
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			return malformed("answer key entry %q is empty", key)
		}
		if q.Type != models.QuestionEssay {
			answer = strings.ToUpper(answer)
			if answer != q.CorrectAnswer {
				return malformed("answer key entry %q is %q but question says %q", key, answer, q.CorrectAnswer)
			}
		}
		c.AnswerKey[key] = answer
	}
	return nil
}
