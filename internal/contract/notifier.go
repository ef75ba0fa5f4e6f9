package contract

import "context"

// ImpactEvent is published when an assessment finds breaking changes.
type ImpactEvent struct {
	ReportID          string   `json:"report_id"`
	RepoName          string   `json:"repo_name"`
	BreakingCount     int      `json:"breaking_count"`
	AffectedConsumers []string `json:"affected_consumers"`
	Changes           []string `json:"changes"`
}

// Notifier delivers impact events to interested parties.
type Notifier interface {
	NotifyImpact(ctx context.Context, event ImpactEvent) error
}

// NewImpactEvent summarizes a report for publication.
func NewImpactEvent(r *ImpactReport) ImpactEvent {
	seen := make(map[string]bool)
	var consumers []string
	changes := make([]string, 0, len(r.BreakingChanges))
	for _, c := range r.BreakingChanges {
		changes = append(changes, c.Description)
		for _, name := range c.AffectedConsumers {
			if !seen[name] {
				seen[name] = true
				consumers = append(consumers, name)
			}
		}
	}
	return ImpactEvent{
		ReportID:          r.ReportID,
		RepoName:          r.RepoName,
		BreakingCount:     len(r.BreakingChanges),
		AffectedConsumers: consumers,
		Changes:           changes,
	}
}
