package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/totegamma/messboard/internal/domain"
	"github.com/totegamma/messboard/internal/infra/database/models"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n domain.Notification) error {
	ctx, span := tracer.Start(ctx, "Notification.Repository.Create")
	defer span.End()

	row := models.Notification{
		ID:        n.ID,
		Message:   n.Message,
		CreatedBy: n.CreatedBy,
		CreatedAt: n.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "NotificationRepository.Create")
	}
	return nil
}

func (r *NotificationRepository) ListRecent(ctx context.Context, limit int) ([]domain.Notification, error) {
	ctx, span := tracer.Start(ctx, "Notification.Repository.ListRecent")
	defer span.End()

	var rows []models.Notification
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "NotificationRepository.ListRecent")
	}

	list := make([]domain.Notification, 0, len(rows))
	for _, row := range rows {
		list = append(list, notificationToDomain(row))
	}
	return list, nil
}

type IssueRepository struct {
	db *gorm.DB
}

func NewIssueRepository(db *gorm.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

func (r *IssueRepository) Create(ctx context.Context, issue domain.IssueReport) error {
	ctx, span := tracer.Start(ctx, "Issue.Repository.Create")
	defer span.End()

	row := issueToModel(issue)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "IssueRepository.Create")
	}
	return nil
}

func notificationToDomain(row models.Notification) domain.Notification {
	return domain.Notification{
		ID:        row.ID,
		Message:   row.Message,
		CreatedBy: row.CreatedBy,
		CreatedAt: row.CreatedAt,
	}
}

func issueToModel(issue domain.IssueReport) models.Issue {
	return models.Issue{
		ID:        issue.ID,
		Name:      issue.Name,
		Email:     issue.Email,
		Hostel:    string(issue.Hostel),
		Type:      issue.Type,
		Message:   issue.Message,
		CreatedAt: issue.CreatedAt,
	}
}
