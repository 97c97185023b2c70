package generation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ManuelReschke/ExamFox/app/models"
)

// Defaults stored for freeform requests.
const (
	FreeformTheme         = "Chat Generated"
	FreeformGrade         = "N/A"
	FreeformQuestionCount = 10
)

// Request is either a freeform prompt or a structured exam description.
// A non-empty Prompt takes precedence over the structured fields.
type Request struct {
	Prompt        string `json:"prompt"`
	Theme         string `json:"theme"`
	Grade         string `json:"grade"`
	QuestionCount int    `json:"questionCount"`
	Type          string `json:"type"`
}

type freeformRequest struct {
	Prompt string `validate:"required,max=4000"`
}

type structuredRequest struct {
	Theme         string `validate:"required,max=255"`
	Grade         string `validate:"required,max=100"`
	QuestionCount int    `validate:"required,min=1,max=50"`
	Type          string `validate:"required,oneof=multiple_choice true_false essay mixed"`
}

var validate = validator.New()

// IsFreeform reports whether the request carries a raw prompt.
func (r Request) IsFreeform() bool {
	return strings.TrimSpace(r.Prompt) != ""
}

// Normalize trims the request and fills the stored defaults for freeform prompts.
func (r Request) Normalize() Request {
	if r.IsFreeform() {
		return Request{
			Prompt:        strings.TrimSpace(r.Prompt),
			Theme:         FreeformTheme,
			Grade:         FreeformGrade,
			QuestionCount: FreeformQuestionCount,
			Type:          models.QuestionMultipleChoice,
		}
	}
	return Request{
		Theme:         strings.TrimSpace(r.Theme),
		Grade:         strings.TrimSpace(r.Grade),
		QuestionCount: r.QuestionCount,
		Type:          strings.ToLower(strings.TrimSpace(r.Type)),
	}
}

// Validate checks the normalized request.
func (r Request) Validate() error {
	n := r.Normalize()
	var err error
	if n.IsFreeform() {
		err = validate.Struct(freeformRequest{Prompt: n.Prompt})
	} else {
		err = validate.Struct(structuredRequest{
			Theme:         n.Theme,
			Grade:         n.Grade,
			QuestionCount: n.QuestionCount,
			Type:          n.Type,
		})
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}
