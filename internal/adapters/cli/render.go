package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/andrescamacho/gatherbot-go/internal/adapters/grpc"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	headerStyle    = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle      = lipgloss.NewStyle().Padding(0, 1)
	currentStyle   = lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	completedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	failedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	skippedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	runningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
	warningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
)

func statusStyle(status string) lipgloss.Style {
	switch status {
	case "COMPLETED":
		return completedStyle
	case "FAILED", "ERROR":
		return failedStyle
	case "SKIPPED":
		return skippedStyle
	case "IN_PROGRESS", "RUNNING":
		return runningStyle
	default:
		return lipgloss.NewStyle()
	}
}

func levelStyle(level string) lipgloss.Style {
	switch level {
	case "ERROR":
		return failedStyle
	case "WARNING":
		return warningStyle
	case "DEBUG":
		return mutedStyle
	default:
		return lipgloss.NewStyle()
	}
}

// renderStatus draws the live status: a header line and the task table
func renderStatus(view grpc.StatusView) string {
	var b strings.Builder

	state := statusStyle(view.State).Render(view.State)
	fmt.Fprintf(&b, "%s  %s  %s\n", titleStyle.Render("gatherbot"), state, mutedStyle.Render(view.Mode))
	if view.SessionID != "" {
		fmt.Fprintf(&b, "Session:  %s\n", view.SessionID)
	}
	if !view.StartedAt.IsZero() {
		fmt.Fprintf(&b, "Started:  %s (%s)\n", view.StartedAt.Local().Format("2006-01-02 15:04:05"), formatElapsed(view.StartedAt, view.FinishedAt))
	}
	if view.Message != "" {
		fmt.Fprintf(&b, "Status:   %s\n", view.Message)
	}
	fmt.Fprintf(&b, "Gathered: %d\n", view.TotalGathered)

	if len(view.Tasks) > 0 {
		b.WriteString("\n")
		b.WriteString(renderTasks(view.Tasks, view.CurrentIndex))
	}
	return b.String()
}

// renderTasks draws a task table. current < 0 highlights nothing.
func renderTasks(tasks []grpc.TaskView, current int) string {
	rows := make([][]string, len(tasks))
	for i, task := range tasks {
		rows[i] = []string{
			fmt.Sprintf("%d", i+1),
			task.ItemName,
			fmt.Sprintf("%d/%d", task.Observed, task.Needed),
			task.Status,
			fmt.Sprintf("%d", task.Retries),
			truncate(task.Error, 48),
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers("#", "ITEM", "PROGRESS", "STATUS", "RETRIES", "NOTE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 3 && row >= 0 && row < len(tasks) {
				return cellStyle.Inherit(statusStyle(tasks[row].Status))
			}
			if row == current {
				return currentStyle
			}
			return cellStyle
		})
	return t.Render() + "\n"
}

// renderHistory draws one row per finished session
func renderHistory(view grpc.HistoryView) string {
	if len(view.Sessions) == 0 {
		return "No gathering sessions recorded\n"
	}

	rows := make([][]string, len(view.Sessions))
	for i, s := range view.Sessions {
		rows[i] = []string{
			s.SessionID,
			s.State,
			s.StartedAt.Local().Format("2006-01-02 15:04"),
			formatElapsed(s.StartedAt, s.FinishedAt),
			fmt.Sprintf("%d", s.TotalGathered),
			fmt.Sprintf("%d/%d/%d", s.Completed, s.Failed, s.Skipped),
			truncate(s.Message, 40),
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers("SESSION", "STATE", "STARTED", "DURATION", "GATHERED", "OK/FAIL/SKIP", "RESULT").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 1 && row >= 0 && row < len(view.Sessions) {
				return cellStyle.Inherit(statusStyle(view.Sessions[row].State))
			}
			return cellStyle
		})
	return t.Render() + "\n"
}

// renderLogs prints log lines oldest first. lines arrive newest first.
func renderLogs(view grpc.LogsView) string {
	if len(view.Lines) == 0 {
		return fmt.Sprintf("No logs found for session: %s\n", view.SessionID)
	}

	var b strings.Builder
	for i := len(view.Lines) - 1; i >= 0; i-- {
		line := view.Lines[i]
		fmt.Fprintf(&b, "[%s] [%s] %s%s\n",
			line.Timestamp.Local().Format("2006-01-02 15:04:05"),
			levelStyle(line.Level).Render(line.Level),
			line.Message,
			formatMetadata(line.Metadata),
		)
	}
	fmt.Fprintf(&b, "\nTotal: %d log entries\n", len(view.Lines))
	return b.String()
}

func formatMetadata(metadata map[string]interface{}) string {
	if len(metadata) == 0 {
		return ""
	}
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		if k != "session_id" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, metadata[k])
	}
	return " " + mutedStyle.Render(strings.Join(parts, " "))
}

func formatElapsed(start, end time.Time) string {
	if start.IsZero() {
		return "-"
	}
	if end.IsZero() || end.Before(start) {
		end = time.Now()
	}
	return end.Sub(start).Truncate(time.Second).String()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
