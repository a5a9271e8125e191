package stats

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"econpipe/internal/models"
)

const separator = "------------------------------------------------"

// RenderSummary formats the summary as the block printed on stdout at
// the end of a run. Labels are padded by display width so the block
// stays aligned when source names use wide characters.
func RenderSummary(s *models.Summary) string {
	rows := [][2]string{}

	if s.SnapshotError != "" {
		rows = append(rows, [2]string{"News articles", "unavailable"})
	} else {
		rows = append(rows, [2]string{"News articles", strconv.Itoa(s.Articles)})
	}

	if s.LastUpdated != "" {
		rows = append(rows, [2]string{"Last updated", s.LastUpdated})
	}

	rows = append(rows,
		[2]string{"Processed entries", strconv.Itoa(s.Processed)},
		[2]string{"Report files", strconv.Itoa(s.Reports)},
		[2]string{"Archived snapshots", fmt.Sprintf("%d (%s)", s.ArchiveCount, formatBytes(s.ArchiveBytes))},
	)

	if s.Disk != nil {
		rows = append(rows, [2]string{"Disk free", fmt.Sprintf(
			"%s of %s (%.1f%% used)",
			formatBytes(int64(s.Disk.FreeBytes)),
			formatBytes(int64(s.Disk.TotalBytes)),
			s.Disk.UsedPercent,
		)})
	}

	if s.SnapshotError != "" {
		rows = append(rows, [2]string{"Snapshot error", s.SnapshotError})
	}

	var sb strings.Builder

	sb.WriteString("\n" + separator + "\n")
	sb.WriteString("📊 Pipeline Summary\n")
	sb.WriteString(separator + "\n")

	writeAligned(&sb, rows, "")

	if len(s.TopSources) > 0 {
		sb.WriteString("\nTop sources\n")

		sourceRows := make([][2]string, 0, len(s.TopSources))
		for _, sc := range s.TopSources {
			sourceRows = append(sourceRows, [2]string{sc.Source, strconv.Itoa(sc.Count)})
		}

		writeAligned(&sb, sourceRows, "  ")
	}

	sb.WriteString(separator + "\n")

	return sb.String()
}

// RenderSteps formats the per-step outcomes for the run summary.
func RenderSteps(results []models.StepResult) string {
	if len(results) == 0 {
		return ""
	}

	width := 0
	for _, result := range results {
		if w := runewidth.StringWidth(result.Name); w > width {
			width = w
		}
	}

	var sb strings.Builder

	sb.WriteString("\n" + separator + "\n")
	sb.WriteString("⚙️  Steps\n")
	sb.WriteString(separator + "\n")

	for _, result := range results {
		sb.WriteString(fmt.Sprintf("%s %s  %s\n",
			stateEmoji(result.State),
			runewidth.FillRight(result.Name, width),
			stepDetail(result),
		))
	}

	return sb.String()
}

func stateEmoji(state models.StepState) string {
	switch state {
	case models.StepOK:
		return "✅"
	case models.StepFailed, models.StepTimeout:
		return "❌"
	default:
		return "⚠️ "
	}
}

func stepDetail(result models.StepResult) string {
	switch result.State {
	case models.StepOK:
		return fmt.Sprintf("ok in %v", (time.Duration(result.DurationMS) * time.Millisecond).Round(time.Millisecond))
	case models.StepFailed:
		return fmt.Sprintf("failed (exit %d)", result.ExitCode)
	case models.StepTimeout:
		return result.Error
	case models.StepSkipped:
		return "skipped (disabled)"
	default:
		return "not run"
	}
}

func writeAligned(sb *strings.Builder, rows [][2]string, indent string) {
	width := 0
	for _, row := range rows {
		if w := runewidth.StringWidth(row[0]); w > width {
			width = w
		}
	}

	for _, row := range rows {
		sb.WriteString(indent)
		sb.WriteString(runewidth.FillRight(row[0], width+2))
		sb.WriteString(row[1])
		sb.WriteString("\n")
	}
}

func formatBytes(n int64) string {
	const unit = 1024

	if n < unit {
		return fmt.Sprintf("%d B", n)
	}

	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
