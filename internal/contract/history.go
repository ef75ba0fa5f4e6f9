package contract

import (
	"context"
	"fmt"
	"time"
)

// LatestVersion returns the most recent contract version of a repository, or
// nil if it has never been assessed.
func (s *Service) LatestVersion(ctx context.Context, name string) (*ContractVersion, error) {
	if _, err := s.requireRepo(ctx, name); err != nil {
		return nil, err
	}
	v, err := s.store.GetLatestVersion(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("loading latest version: %w", err)
	}
	return v, nil
}

// ListVersions returns up to limit versions of a repository, newest first.
func (s *Service) ListVersions(ctx context.Context, name string, limit int) ([]ContractVersion, error) {
	if _, err := s.requireRepo(ctx, name); err != nil {
		return nil, err
	}
	versions, err := s.store.ListVersions(ctx, name, limit)
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}
	return versions, nil
}

// GetReport returns a stored impact report, or nil if the ID is unknown.
func (s *Service) GetReport(ctx context.Context, reportID string) (*ImpactReport, error) {
	r, err := s.store.GetReport(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("loading report: %w", err)
	}
	return r, nil
}

// ListReports returns up to limit reports of a repository, newest first.
func (s *Service) ListReports(ctx context.Context, name string, limit int) ([]ImpactReport, error) {
	if _, err := s.requireRepo(ctx, name); err != nil {
		return nil, err
	}
	reports, err := s.store.ListReports(ctx, name, limit)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	return reports, nil
}

// SearchEndpoints finds endpoints across all repositories whose path or
// summary contains query, case-insensitively.
func (s *Service) SearchEndpoints(ctx context.Context, query string, limit int) ([]Endpoint, error) {
	eps, err := s.store.SearchEndpoints(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching endpoints: %w", err)
	}
	return eps, nil
}

// RecordFeedback stores a reviewer's verdict on a report or change.
func (s *Service) RecordFeedback(ctx context.Context, targetID string, target TargetType, outcome FeedbackOutcome, note string) (*Feedback, error) {
	fb := Feedback{
		TargetID:   targetID,
		TargetType: target,
		Outcome:    outcome,
		Context:    note,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.store.SaveFeedback(ctx, fb); err != nil {
		return nil, fmt.Errorf("saving feedback: %w", err)
	}
	s.logger.Info("feedback recorded", "target_id", targetID, "target_type", string(target), "outcome", string(outcome))
	return &fb, nil
}

// ListFeedback returns up to limit feedback entries, newest first.
func (s *Service) ListFeedback(ctx context.Context, limit int) ([]Feedback, error) {
	fbs, err := s.store.ListFeedback(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing feedback: %w", err)
	}
	return fbs, nil
}

// QueryAudit returns audit entries, newest first. An empty toolName matches
// every tool and a zero since matches every time.
func (s *Service) QueryAudit(ctx context.Context, toolName string, since time.Time, limit int) ([]AuditEntry, error) {
	entries, err := s.store.QueryAudit(ctx, toolName, since, limit)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	return entries, nil
}
