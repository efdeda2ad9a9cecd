package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/totegamma/messboard"
	"github.com/totegamma/messboard/internal/domain"
)

type IssueUsecase struct {
	repo      IssueRepository
	publisher Publisher
	timeout   time.Duration
}

func NewIssueUsecase(repo IssueRepository, publisher Publisher, timeout time.Duration) *IssueUsecase {
	if timeout <= 0 {
		timeout = DefaultStorageTimeout
	}
	return &IssueUsecase{repo: repo, publisher: publisher, timeout: timeout}
}

// Report persists the issue, then relays it to the admins' channel. A relay
// failure does not fail the report.
func (uc *IssueUsecase) Report(ctx context.Context, req messboard.ReportIssueRequest) (domain.IssueReport, error) {
	ctx, span := tracer.Start(ctx, "Issue.Usecase.Report")
	defer span.End()

	issue := domain.IssueReport{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Type:      strings.TrimSpace(req.Type),
		Message:   strings.TrimSpace(req.Message),
		CreatedAt: time.Now().UTC(),
	}
	if issue.Message == "" {
		err := domain.ValidationError{Field: "message", Reason: "required"}
		span.RecordError(err)
		return domain.IssueReport{}, err
	}
	if issue.Email != "" {
		if _, err := mail.ParseAddress(issue.Email); err != nil {
			verr := domain.ValidationError{Field: "email", Reason: "malformed address"}
			span.RecordError(verr)
			return domain.IssueReport{}, verr
		}
	}
	if strings.TrimSpace(req.Hostel) != "" {
		h, err := domain.ParseHostel(req.Hostel)
		if err != nil {
			span.RecordError(err)
			return domain.IssueReport{}, err
		}
		issue.Hostel = h
	}

	sctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	if err := uc.repo.Create(sctx, issue); err != nil {
		err = classify("IssueUsecase.Report", err)
		span.RecordError(err)
		return domain.IssueReport{}, err
	}

	if uc.publisher != nil {
		payload, _ := json.Marshal(issue)
		event := messboard.Event{
			Type:      string(domain.EventIssue),
			Channel:   domain.IssueChannel,
			Hostel:    string(issue.Hostel),
			Payload:   payload,
			Timestamp: issue.CreatedAt,
		}
		if err := uc.publisher.Publish(ctx, domain.IssueChannel, event); err != nil {
			slog.WarnContext(
				ctx, "failed to relay issue report",
				slog.String("issueID", issue.ID),
				slog.String("error", err.Error()),
				slog.String("module", "issue"),
			)
		}
	}

	return issue, nil
}
