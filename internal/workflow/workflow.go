// Package workflow implements the question resolution state machine: validate
// the question, load the position and its company, consult the oracle, and
// record unanswered questions back into the position's FAQ list.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/garnizeh/positionfaq/internal/ai"
	"github.com/garnizeh/positionfaq/internal/models"
	"github.com/garnizeh/positionfaq/internal/store"
)

// MsgUnexpected is the generic failure message surfaced to callers; detail
// stays in the logs.
const MsgUnexpected = "An unexpected error occurred while processing your request. Please try again later."

// Result is the terminal outcome of one resolution.
type Result struct {
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Store is the slice of the document store the resolver depends on.
type Store interface {
	GetPosition(ctx context.Context, id int64) (*models.PositionDocument, error)
	GetCompany(ctx context.Context, id int64) (*models.CompanyDocument, error)
	UpdatePosition(ctx context.Context, id int64, mutate func(*models.PositionDocument) error) (int64, error)
}

// Oracle is the generative-language capability injected at construction so
// tests can substitute a deterministic stub.
type Oracle interface {
	AnswerQuestion(ctx context.Context, question string, pos *models.PositionDocument, com *models.CompanyDocument) (*ai.Answer, error)
	SummarizeQuestion(ctx context.Context, question string) (string, error)
}

// Notifier is told about newly recorded unanswered questions. Notification is
// best-effort and never affects the caller's response.
type Notifier interface {
	QuestionRecorded(ctx context.Context, positionID, faqID int64, question string)
}

type Resolver struct {
	store    Store
	oracle   Oracle
	notifier Notifier
	maxLen   int
	logger   *slog.Logger
}

func NewResolver(s Store, o Oracle, n Notifier, maxQuestionLen int, logger *slog.Logger) *Resolver {
	if maxQuestionLen <= 0 {
		maxQuestionLen = 5000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: s, oracle: o, notifier: n, maxLen: maxQuestionLen, logger: logger}
}

// Resolve runs the full workflow for one question. Every reachable path is
// terminal: validation and unknown-position failures return success:false,
// everything else returns success:true with some response text, even when the
// oracle fails or the FAQ bookkeeping write does not land.
func (r *Resolver) Resolve(ctx context.Context, question string, positionID int64) Result {
	if err := ValidateQuestion(question, r.maxLen); err != nil {
		return Result{Success: false, Error: err.Error()}
	}
	if positionID <= 0 {
		return Result{Success: false, Error: "Position ID is required"}
	}

	pos, err := r.store.GetPosition(ctx, positionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Result{Success: false, Error: fmt.Sprintf("Position with ID %d not found", positionID)}
		}
		r.logger.Error("load position", slog.Int64("position_id", positionID), slog.Any("err", err))
		return Result{Success: false, Error: MsgUnexpected}
	}

	com := r.loadCompany(ctx, pos)

	ans, err := r.oracle.AnswerQuestion(ctx, question, pos, com)
	if err != nil {
		// An oracle outage degrades the answer, it does not fail the request.
		r.logger.Warn("oracle call failed", slog.Int64("position_id", positionID), slog.Any("err", err))
		return Result{Success: true, Response: ai.ResponseApology}
	}

	switch ans.Outcome {
	case ai.OutcomeForwardToHuman:
		r.recordRepeatQuestion(ctx, positionID, ans)
	case ai.OutcomeNewFAQNeeded:
		r.recordNewQuestion(ctx, positionID, question)
	}

	return Result{Success: true, Response: ans.Response}
}

// loadCompany resolves the owning company, substituting an empty one when the
// position has no companyId or the company document is missing.
func (r *Resolver) loadCompany(ctx context.Context, pos *models.PositionDocument) *models.CompanyDocument {
	companyID := pos.Position.CompanyID
	if companyID == 0 {
		r.logger.Warn("position has no company id", slog.Int64("position_id", pos.Position.ID))
		return models.EmptyCompanyDocument()
	}

	com, err := r.store.GetCompany(ctx, companyID)
	if err != nil {
		r.logger.Warn("company data not found", slog.Int64("company_id", companyID), slog.Any("err", err))
		return models.EmptyCompanyDocument()
	}
	return com
}

var errFAQNotFound = errors.New("faq not found")

// recordRepeatQuestion bumps timesAsked on the FAQ the oracle matched. An
// unknown id is a log-only no-op and writes nothing.
func (r *Resolver) recordRepeatQuestion(ctx context.Context, positionID int64, ans *ai.Answer) {
	if ans.SimilarQuestionID == nil {
		r.logger.Warn("forward_to_human outcome without similarQuestionId", slog.Int64("position_id", positionID))
		return
	}
	faqID := *ans.SimilarQuestionID

	_, err := r.store.UpdatePosition(ctx, positionID, func(doc *models.PositionDocument) error {
		for i := range doc.PositionFAQs {
			if doc.PositionFAQs[i].ID == faqID {
				doc.PositionFAQs[i].TimesAsked++
				doc.PositionFAQs[i].Timestamp = models.Timestamp(time.Now())
				return nil
			}
		}
		return errFAQNotFound
	})
	if err != nil {
		if errors.Is(err, errFAQNotFound) {
			r.logger.Warn("similar FAQ not present, skipping counter update",
				slog.Int64("position_id", positionID), slog.Int64("faq_id", faqID))
			return
		}
		r.logger.Error("persist timesAsked increment",
			slog.Int64("position_id", positionID), slog.Int64("faq_id", faqID), slog.Any("err", err))
	}
}

// recordNewQuestion appends an unanswered FAQ built from a generalized form of
// the question. Persistence failure is logged and does not change the response
// the caller already has.
func (r *Resolver) recordNewQuestion(ctx context.Context, positionID int64, question string) {
	summary, err := r.oracle.SummarizeQuestion(ctx, question)
	if err != nil {
		r.logger.Warn("question summarization failed, storing verbatim",
			slog.Int64("position_id", positionID), slog.Any("err", err))
		summary = question
	}

	var faqID int64
	_, err = r.store.UpdatePosition(ctx, positionID, func(doc *models.PositionDocument) error {
		faqID = models.NextFAQID(doc.PositionFAQs)
		doc.PositionFAQs = append(doc.PositionFAQs, models.FAQ{
			ID:              faqID,
			PositionID:      positionID,
			GeneratedByUser: true,
			AnsweredByHR:    false,
			TimesAsked:      1,
			Question:        summary,
			Response:        nil,
			Version:         1,
			Timestamp:       models.Timestamp(time.Now()),
		})
		return nil
	})
	if err != nil {
		r.logger.Error("persist new FAQ", slog.Int64("position_id", positionID), slog.Any("err", err))
		return
	}

	if r.notifier != nil {
		r.notifier.QuestionRecorded(ctx, positionID, faqID, summary)
	}
}
