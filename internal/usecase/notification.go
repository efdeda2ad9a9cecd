package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/totegamma/messboard"
	"github.com/totegamma/messboard/internal/domain"
)

const (
	DefaultNotificationLimit = 20
	MaxNotificationLimit     = 100
)

type NotificationUsecase struct {
	repo      NotificationRepository
	publisher Publisher
	timeout   time.Duration
}

func NewNotificationUsecase(repo NotificationRepository, publisher Publisher, timeout time.Duration) *NotificationUsecase {
	if timeout <= 0 {
		timeout = DefaultStorageTimeout
	}
	return &NotificationUsecase{repo: repo, publisher: publisher, timeout: timeout}
}

func (uc *NotificationUsecase) Post(ctx context.Context, message, createdBy string) (domain.Notification, error) {
	ctx, span := tracer.Start(ctx, "Notification.Usecase.Post")
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		err := domain.ValidationError{Field: "message", Reason: "required"}
		span.RecordError(err)
		return domain.Notification{}, err
	}
	createdBy = strings.TrimSpace(createdBy)
	if createdBy == "" {
		createdBy = domain.AnonymousCreator
	}

	n := domain.Notification{
		ID:        uuid.NewString(),
		Message:   message,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}

	sctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	if err := uc.repo.Create(sctx, n); err != nil {
		err = classify("NotificationUsecase.Post", err)
		span.RecordError(err)
		return domain.Notification{}, err
	}

	if uc.publisher != nil {
		payload, _ := json.Marshal(n)
		event := messboard.Event{
			Type:      string(domain.EventNotification),
			Channel:   domain.NotificationChannel,
			Payload:   payload,
			Timestamp: n.CreatedAt,
		}
		if err := uc.publisher.Publish(ctx, domain.NotificationChannel, event); err != nil {
			slog.WarnContext(
				ctx, "failed to publish notification",
				slog.String("error", err.Error()),
				slog.String("module", "notification"),
			)
		}
	}

	return n, nil
}

// List returns the newest notifications first.
func (uc *NotificationUsecase) List(ctx context.Context, limit int) ([]domain.Notification, error) {
	ctx, span := tracer.Start(ctx, "Notification.Usecase.List")
	defer span.End()

	if limit <= 0 {
		limit = DefaultNotificationLimit
	}
	if limit > MaxNotificationLimit {
		limit = MaxNotificationLimit
	}

	sctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	list, err := uc.repo.ListRecent(sctx, limit)
	if err != nil {
		err = classify("NotificationUsecase.List", err)
		span.RecordError(err)
		return nil, err
	}
	if list == nil {
		list = []domain.Notification{}
	}
	return list, nil
}
