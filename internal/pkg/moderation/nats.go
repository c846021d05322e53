package moderation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/artxchange/artx-api/internal/domain"
)

const (
	SubjectSubmitted = "moderation.appeals.submitted"
	SubjectReview    = "moderation.appeals.review"
	SubjectResolved  = "moderation.appeals.resolved"

	queueGroup = "artx-api"
)

type submission struct {
	Ref    string        `json:"ref"`
	Appeal domain.Appeal `json:"appeal"`
	SentAt time.Time     `json:"sent_at"`
}

// NATS publishes appeals to the moderation tooling and listens for its
// decisions.
type NATS struct {
	nc   *nats.Conn
	subs []*nats.Subscription
}

func NewNATS(url string) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name("artx-api"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats.Connect -> %w", err)
	}

	return &NATS{nc: nc}, nil
}

func (q *NATS) SubmitAppeal(ctx context.Context, appeal domain.Appeal) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	ref := uuid.NewString()
	data, err := encodeSubmission(ref, appeal, time.Now())
	if err != nil {
		return "", err
	}

	if err = q.nc.Publish(SubjectSubmitted, data); err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	// Flush waits for the server to acknowledge the publish.
	if err = q.nc.FlushWithContext(ctx); err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return ref, nil
}

// Listen feeds review and resolution messages to handle until Close.
func (q *NATS) Listen(handle UpdateHandler) error {
	for _, subject := range []string{SubjectReview, SubjectResolved} {
		sub, err := q.nc.QueueSubscribe(subject, queueGroup, func(msg *nats.Msg) {
			u, err := decodeUpdate(msg.Subject, msg.Data)
			if err != nil {
				zap.L().Warn("dropping malformed moderation update", zap.String("subject", msg.Subject), zap.Error(err))
				return
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err = handle(ctx, u); err != nil {
				zap.L().Error("failed to apply moderation update", zap.String("appeal_id", u.AppealID), zap.Error(err))
			}
		})
		if err != nil {
			return fmt.Errorf("q.nc.QueueSubscribe(%s) -> %w", subject, err)
		}
		q.subs = append(q.subs, sub)
	}

	return nil
}

func (q *NATS) Close() {
	for _, sub := range q.subs {
		_ = sub.Unsubscribe()
	}
	q.nc.Close()
}

func encodeSubmission(ref string, appeal domain.Appeal, at time.Time) ([]byte, error) {
	data, err := json.Marshal(submission{Ref: ref, Appeal: appeal, SentAt: at})
	if err != nil {
		return nil, fmt.Errorf("json.Marshal -> %w", err)
	}
	return data, nil
}

// decodeUpdate parses a moderation message. The subject decides the status
// when the payload leaves it out.
func decodeUpdate(subject string, data []byte) (Update, error) {
	var u Update
	if err := json.Unmarshal(data, &u); err != nil {
		return Update{}, fmt.Errorf("json.Unmarshal -> %w", err)
	}
	if u.AppealID == "" {
		return Update{}, fmt.Errorf("missing appeal_id")
	}

	if u.Status == "" {
		switch subject {
		case SubjectReview:
			u.Status = domain.AppealUnderReview
		case SubjectResolved:
			u.Status = domain.AppealResolved
		}
	}
	if u.Status == domain.AppealResolved && !u.Outcome.Valid() {
		return Update{}, fmt.Errorf("resolution without a valid outcome %q", u.Outcome)
	}
	if u.At.IsZero() {
		u.At = time.Now()
	}

	return u, nil
}
