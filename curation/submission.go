// Package curation queues community alias submissions for review and folds
// approved ones into a new roster. It never touches a live alias index; the
// caller rebuilds one from the roster Apply returns.
package curation

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/teranos/hansard/errors"
	"github.com/teranos/hansard/roster"
)

// Kind is what a submission asks for.
type Kind string

const (
	// KindAddition adds an alias to the target.
	KindAddition Kind = "addition"
	// KindCorrection moves an alias from whoever holds it to the target.
	KindCorrection Kind = "correction"
)

// Status tracks review.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// MinEvidenceLength is the shortest evidence accepted, in characters.
const MinEvidenceLength = 10

// Submission is a proposed alias change.
type Submission struct {
	ID             string     `json:"id"`
	Kind           Kind       `json:"kind" validate:"required,oneof=addition correction"`
	Alias          string     `json:"alias" validate:"required,max=200"`
	TargetNodeID   string     `json:"target_node_id" validate:"required,node_id"`
	PreviousNodeID string     `json:"previous_node_id,omitempty" validate:"omitempty,node_id,nefield=TargetNodeID"`
	Evidence       string     `json:"evidence" validate:"required,min=10"`
	Submitter      string     `json:"submitter" validate:"required,max=100"`
	Status         Status     `json:"status"`
	Reviewer       string     `json:"reviewer,omitempty"`
	ReviewNotes    string     `json:"review_notes,omitempty"`
	SubmittedAt    time.Time  `json:"submitted_at"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
}

var submissionValidator = newSubmissionValidator()

func newSubmissionValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("node_id", func(fl validator.FieldLevel) bool {
		return roster.ValidNodeID(fl.Field().String())
	})
	return v
}

// Validate checks a submission before it is queued. Text fields are
// trimmed in place.
func (s *Submission) Validate() error {
	s.Alias = strings.TrimSpace(s.Alias)
	s.TargetNodeID = strings.TrimSpace(s.TargetNodeID)
	s.PreviousNodeID = strings.TrimSpace(s.PreviousNodeID)
	s.Evidence = strings.TrimSpace(s.Evidence)
	s.Submitter = strings.TrimSpace(s.Submitter)
	if s.Kind == "" {
		s.Kind = KindAddition
	}

	err := submissionValidator.Struct(s)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(err, "validate submission")
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describe(fe))
	}
	return errors.WithHint(
		errors.Wrapf(errors.ErrInvalidRequest, "submission: %s", strings.Join(problems, "; ")),
		"node ids look like mp_davis_brave; evidence should cite where the alias was used")
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "node_id":
		return fe.Field() + " is not a node id"
	case "nefield":
		return fe.Field() + " must differ from target_node_id"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	}
	return fe.Field() + " failed " + fe.Tag()
}
