// Package generation admits, runs and commits exam generation requests.
package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/ExamFox/app/models"
	"github.com/ManuelReschke/ExamFox/internal/pkg/completion"
	"github.com/ManuelReschke/ExamFox/internal/pkg/entitlements"
)

const (
	defaultGenerationTimeout = 60 * time.Second
	archiveTimeout           = 30 * time.Second
)

// Outcome labels one finished generation attempt.
type Outcome string

const (
	OutcomeSuccess       Outcome = "success"
	OutcomeInvalid       Outcome = "invalid"
	OutcomeQuotaExceeded Outcome = "quota_exceeded"
	OutcomeProviderError Outcome = "provider_error"
	OutcomeMalformed     Outcome = "malformed"
	OutcomeInternal      Outcome = "internal_error"
)

// Archiver stores a copy of a committed artifact.
type Archiver interface {
	Archive(ctx context.Context, artifact *models.ExamArtifact) error
}

// OutcomeRecorder counts finished attempts.
type OutcomeRecorder interface {
	RecordGeneration(ctx context.Context, outcome Outcome)
}

// Result is a committed artifact with the entitlement read back after commit.
type Result struct {
	Artifact    *models.ExamArtifact
	Entitlement entitlements.Entitlement
}

// Options configures a Pipeline. Only DB and Completer are required.
type Options struct {
	DB        *gorm.DB
	Completer completion.Completer
	Archiver  Archiver
	Recorder  OutcomeRecorder
	// Timeout bounds the provider call and the commit.
	Timeout time.Duration
}

type Pipeline struct {
	db        *gorm.DB
	completer completion.Completer
	archiver  Archiver
	recorder  OutcomeRecorder
	timeout   time.Duration
	now       func() time.Time
}

func NewPipeline(opts Options) *Pipeline {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultGenerationTimeout
	}
	return &Pipeline{
		db:        opts.DB,
		completer: opts.Completer,
		archiver:  opts.Archiver,
		recorder:  opts.Recorder,
		timeout:   timeout,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Generate admits the request against the account's entitlement, calls the
// completion service once and commits the artifact together with the usage
// increment. Nothing is persisted unless the output parses.
func (p *Pipeline) Generate(ctx context.Context, accountID uint, req Request) (*Result, error) {
	res, err := p.generate(ctx, accountID, req)
	p.record(ctx, outcomeOf(err))
	return res, err
}

func (p *Pipeline) generate(ctx context.Context, accountID uint, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req = req.Normalize()

	var account models.Account
	if err := p.db.WithContext(ctx).First(&account, accountID).Error; err != nil {
		return nil, err
	}
	ent := entitlements.Evaluate(entitlements.SnapshotOf(&account), p.now())
	if ent.Blocked {
		return nil, &QuotaExceededError{Limit: *ent.Limit, Used: ent.Used}
	}

	// From here on the work must finish even if the client goes away, so an
	// accepted provider result is never lost between persist and increment.
	workCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	raw, err := p.completer.Complete(workCtx, BuildPrompt(req))
	if err != nil {
		log.Errorf("[Generation] completion failed for account %d: %v", accountID, err)
		return nil, &ProviderError{Err: err}
	}

	content, err := ParseContent(raw)
	if err != nil {
		log.Warnf("[Generation] discarding output for account %d: %v", accountID, err)
		return nil, err
	}

	artifact := &models.ExamArtifact{
		UUID:          uuid.NewString(),
		AccountID:     accountID,
		Title:         content.Title,
		Theme:         req.Theme,
		Grade:         req.Grade,
		QuestionCount: req.QuestionCount,
		Type:          req.Type,
		Content:       *content,
	}
	committed, err := p.commit(workCtx, accountID, artifact)
	if err != nil {
		return nil, err
	}

	p.archive(ctx, artifact)

	return &Result{
		Artifact:    artifact,
		Entitlement: entitlements.Evaluate(entitlements.SnapshotOf(committed), p.now()),
	}, nil
}

// commit re-checks the allowance against the locked row and applies the
// increment and the artifact insert atomically.
func (p *Pipeline) commit(ctx context.Context, accountID uint, artifact *models.ExamArtifact) (*models.Account, error) {
	var committed models.Account
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Account
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, accountID).Error; err != nil {
			return err
		}

		ent := entitlements.Evaluate(entitlements.SnapshotOf(&current), p.now())
		query := tx.Model(&models.Account{}).Where("id = ?", accountID)
		if !ent.Unbounded() {
			if ent.Blocked {
				return &QuotaExceededError{Limit: *ent.Limit, Used: ent.Used}
			}
			query = query.Where("quota_used < ?", *ent.Limit)
		}
		res := query.Update("quota_used", gorm.Expr("quota_used + ?", 1))
		if res.Error != nil {
			return fmt.Errorf("increment usage: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			limit := 0
			if ent.Limit != nil {
				limit = *ent.Limit
			}
			return &QuotaExceededError{Limit: limit, Used: current.QuotaUsed}
		}

		if err := tx.Create(artifact).Error; err != nil {
			return fmt.Errorf("store artifact: %w", err)
		}
		return tx.First(&committed, accountID).Error
	})
	if err != nil {
		return nil, err
	}
	return &committed, nil
}

func (p *Pipeline) archive(ctx context.Context, artifact *models.ExamArtifact) {
	if p.archiver == nil {
		return
	}
	go func() {
		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
		defer cancel()
		if err := p.archiver.Archive(actx, artifact); err != nil {
			log.Warnf("[Generation] archive of %s failed: %v", artifact.UUID, err)
		}
	}()
}

func (p *Pipeline) record(ctx context.Context, outcome Outcome) {
	if p.recorder == nil {
		return
	}
	p.recorder.RecordGeneration(ctx, outcome)
}

func outcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrInvalidRequest):
		return OutcomeInvalid
	case IsQuotaExceeded(err):
		return OutcomeQuotaExceeded
	case IsProviderError(err):
		return OutcomeProviderError
	case IsMalformed(err):
		return OutcomeMalformed
	default:
		return OutcomeInternal
	}
}
