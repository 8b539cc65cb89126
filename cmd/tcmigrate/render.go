package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tcmigrate/core/internal/domain/migration"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).MarginTop(1)

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// renderSummary produces the static, non-interactive styled report
// printed after a run reaches a terminal status.
func renderSummary(result *migration.MigrationResult) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("migration run %s", result.RunID)))
	b.WriteString("\n")
	b.WriteString(statusStyle(result.Status).Render(string(result.Status)))
	b.WriteString(fmt.Sprintf(" (%d%% complete)\n", result.Progress))

	b.WriteString(sectionStyle.Render("counts"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  total:    %d\n", result.TotalCount))
	b.WriteString(successStyle.Render(fmt.Sprintf("  migrated: %d\n", result.MigratedCount)))
	b.WriteString(skippedStyle.Render(fmt.Sprintf("  skipped:  %d\n", result.SkippedCount)))
	b.WriteString(failureStyle.Render(fmt.Sprintf("  failed:   %d\n", result.FailedCount)))

	b.WriteString(sectionStyle.Render("summary"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  transformations applied: %d\n", result.Summary.TransformationsApplied))
	b.WriteString(fmt.Sprintf("  attachments migrated/failed: %d/%d\n", result.Summary.AttachmentsMigrated, result.Summary.AttachmentsFailed))
	b.WriteString(fmt.Sprintf("  history migrated/failed: %d/%d\n", result.Summary.HistoryMigrated, result.Summary.HistoryFailed))

	if len(result.Failed) > 0 {
		b.WriteString(sectionStyle.Render("failed items"))
		b.WriteString("\n")
		for _, item := range result.Failed {
			b.WriteString(failureStyle.Render(fmt.Sprintf("  %s (%s): %s\n", item.TestCaseID, item.Name, item.Error)))
		}
	}

	if len(result.Errors) > 0 {
		b.WriteString(sectionStyle.Render("errors"))
		b.WriteString("\n")
		for _, e := range result.Errors {
			b.WriteString(warnStyle.Render("  " + e + "\n"))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func statusStyle(status migration.MigrationStatus) lipgloss.Style {
	switch status {
	case migration.StatusCompleted, migration.StatusRollbackCompleted:
		return successStyle
	case migration.StatusFailed, migration.StatusRollbackFailed:
		return failureStyle
	case migration.StatusPartiallyCompleted:
		return warnStyle
	case migration.StatusCancelled:
		return skippedStyle
	default:
		return sectionStyle
	}
}
