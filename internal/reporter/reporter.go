package reporter

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/spotskip/spotskip/internal/database"
	"github.com/spotskip/spotskip/internal/models"
	"github.com/spotskip/spotskip/pkg/utils"
)

// Reporter handles report generation
type Reporter struct {
	repo *database.Repository
	now  func() time.Time
}

// New creates a new reporter
func New(repo *database.Repository) *Reporter {
	return &Reporter{
		repo: repo,
		now:  time.Now,
	}
}

// GenerateReport generates a restart report for the specified period
func (r *Reporter) GenerateReport(periodType string) (*models.Report, error) {
	period, err := r.getPeriod(periodType)
	if err != nil {
		return nil, err
	}

	triggers, err := r.repo.GetTriggerSummarySince(period.Start)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get trigger summary")
	}

	events, err := r.repo.GetRestartsSince(period.Start)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get restarts")
	}

	errCount, err := r.repo.CountErrorsSince(period.Start)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count errors")
	}

	report := &models.Report{
		Period:        *period,
		Triggers:      triggers,
		TotalRestarts: len(events),
		Errors:        int(errCount),
		GeneratedAt:   r.now(),
	}

	var totalMillis int64
	for _, e := range events {
		if !e.Launched {
			report.Failed++
		}
		if e.SkipSent {
			report.Skips++
		}
		totalMillis += e.DurationMillis
	}

	if report.TotalRestarts > 0 {
		report.AverageSeconds = float64(totalMillis) / 1000.0 / float64(report.TotalRestarts)
		for i := range report.Triggers {
			report.Triggers[i].Percentage = float64(report.Triggers[i].Restarts) / float64(report.TotalRestarts) * 100.0
		}
	}

	return report, nil
}

// getPeriod calculates the time range for the report
func (r *Reporter) getPeriod(periodType string) (*models.ReportPeriod, error) {
	now := r.now()
	var start, end time.Time

	switch periodType {
	case "day", "today":
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		end = start.Add(24 * time.Hour)

	case "week":
		// Start of week (Monday)
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday = 7
		}
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(weekday - 1))
		end = start.AddDate(0, 0, 7)

	case "month":
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 1, 0)

	default:
		return nil, fmt.Errorf("invalid period type: %s (valid: day, week, month)", periodType)
	}

	return &models.ReportPeriod{
		Start: start,
		End:   end,
		Type:  periodType,
	}, nil
}

// FormatReportText formats the report as human-readable text
func (r *Reporter) FormatReportText(report *models.Report) string {
	output := fmt.Sprintf("Restart Report - %s\n", report.Period.Type)
	output += fmt.Sprintf("Period: %s to %s\n",
		report.Period.Start.Format("2006-01-02 15:04"),
		report.Period.End.Format("2006-01-02 15:04"))
	output += fmt.Sprintf("Restarts: %d (failed: %d, skips sent: %d, tick errors: %d)\n",
		report.TotalRestarts, report.Failed, report.Skips, report.Errors)
	output += fmt.Sprintf("Average Duration: %s\n\n", utils.FormatRoundedSeconds(report.AverageSeconds))

	if len(report.Triggers) == 0 {
		output += "No restarts recorded for this period.\n"
		return output
	}

	output += fmt.Sprintf("%-40s %10s %10s %10s\n", "Trigger Title", "Restarts", "Launched", "Percent")
	output += fmt.Sprintf("%s\n", "--------------------------------------------------------------------------------")

	for _, t := range report.Triggers {
		output += fmt.Sprintf("%-40s %10d %10d %9.1f%%\n",
			truncate(t.TriggerTitle, 40),
			t.Restarts,
			t.Launched,
			t.Percentage)
	}

	return output
}

// FormatHistoryText renders journaled restarts newest first
func (r *Reporter) FormatHistoryText(events []*models.RestartEvent) string {
	if len(events) == 0 {
		return "No restarts recorded.\n"
	}

	now := r.now()
	output := fmt.Sprintf("%-19s %6s %-30s %-20s %s\n", "Time", "Ago", "Trigger", "Phase", "Result")
	for _, e := range events {
		result := "relaunched"
		switch {
		case e.Cancelled:
			result = "cancelled"
		case !e.Launched:
			result = "launch failed"
		case e.SkipSent:
			result = "relaunched, skipped"
		}

		output += fmt.Sprintf("%-19s %6s %-30s %-20s %s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			utils.FormatRounded(now.Sub(e.Timestamp)),
			truncate(e.TriggerTitle, 30),
			e.Phase,
			result)
		if e.Errors != "" {
			output += fmt.Sprintf("%19s %6s %s\n", "", "", truncate(e.Errors, 80))
		}
	}
	return output
}

// FormatReportJSON formats the report as JSON
func (r *Reporter) FormatReportJSON(report *models.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal JSON")
	}
	return string(data), nil
}

// truncate truncates a string to the specified length
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
