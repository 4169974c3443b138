// Package notify tells HR about newly recorded unanswered questions. Delivery
// happens off the request path through the background job queue; the mailer
// itself is log-only in local development, matching the original deployment.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/garnizeh/positionfaq/internal/jobs"
)

// JobTypeNotifyHR is the queue job type for new-question notifications.
const JobTypeNotifyHR = "faq.notify_hr"

// Mailer delivers one message to one recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, message string) error
}

// LogMailer writes the email to the log instead of sending it.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) Send(ctx context.Context, to, subject, message string) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("[LOCAL EMAIL]",
		slog.String("to", to), slog.String("subject", subject), slog.String("message", message))
	return nil
}

// Queue is the slice of the job system the notifier needs.
type Queue interface {
	Enqueue(ctx context.Context, typ string, payload any, priority, maxAttempts int) (int64, error)
}

// QuestionPayload is the job payload for a recorded question.
type QuestionPayload struct {
	PositionID int64  `json:"position_id"`
	FAQID      int64  `json:"faq_id"`
	Question   string `json:"question"`
}

// HRNotifier enqueues a notification job per recorded question. Enqueue
// failures are logged only; the question is already stored.
type HRNotifier struct {
	queue  Queue
	logger *slog.Logger
}

func NewHRNotifier(q Queue, logger *slog.Logger) *HRNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &HRNotifier{queue: q, logger: logger}
}

func (n *HRNotifier) QuestionRecorded(ctx context.Context, positionID, faqID int64, question string) {
	payload := QuestionPayload{PositionID: positionID, FAQID: faqID, Question: question}
	if _, err := n.queue.Enqueue(ctx, JobTypeNotifyHR, payload, 100, 3); err != nil {
		n.logger.Error("enqueue HR notification",
			slog.Int64("position_id", positionID), slog.Int64("faq_id", faqID), slog.Any("err", err))
	}
}

// Handler returns the job handler that delivers queued notifications.
func Handler(mailer Mailer, hrEmail string) jobs.Handler {
	return func(ctx context.Context, j *jobs.Job) error {
		var p QuestionPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		subject := fmt.Sprintf("New candidate question for position %d", p.PositionID)
		message := fmt.Sprintf("Question %d is awaiting an answer: %q", p.FAQID, p.Question)
		return mailer.Send(ctx, hrEmail, subject, message)
	}
}
