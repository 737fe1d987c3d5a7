// Package display renders engine results for the terminal. Render functions
// build styled strings and never print; the CLI decides where output goes.
package display

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pterm/pterm"

	"github.com/arthur-debert/homelink/pkg/effects"
	"github.com/arthur-debert/homelink/pkg/sync"
	"github.com/arthur-debert/homelink/pkg/types"
)

// statusGlyph returns the one-character marker for a classification.
func statusGlyph(st types.FileStatus) string {
	switch st {
	case types.StatusSynced:
		return pterm.NewStyle(pterm.FgGreen).Sprint("✓")
	case types.StatusMissing, types.StatusMissingRepo:
		return pterm.NewStyle(pterm.FgYellow).Sprint("○")
	case types.StatusNotSymlink:
		return pterm.NewStyle(pterm.FgYellow).Sprint("≈")
	default:
		return pterm.NewStyle(pterm.FgRed).Sprint("✗")
	}
}

// RenderStatusReports renders classifications grouped by tool with a summary
// line. Tools print in sorted order so repeated runs compare cleanly.
func RenderStatusReports(reports []types.StatusReport) string {
	if len(reports) == 0 {
		return pterm.NewStyle(pterm.FgYellow).Sprint("No tracked files configured.") + "\n"
	}

	byTool := make(map[string][]types.StatusReport)
	for _, r := range reports {
		byTool[r.File.Tool] = append(byTool[r.File.Tool], r)
	}
	tools := make([]string, 0, len(byTool))
	for tool := range byTool {
		tools = append(tools, tool)
	}
	sort.Strings(tools)

	var b strings.Builder
	issues := 0
	for _, tool := range tools {
		b.WriteString(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint(tool))
		b.WriteString("\n")
		for _, r := range byTool[tool] {
			if r.Status.IsIssue() {
				issues++
			}
			fmt.Fprintf(&b, "  %s %s\n", statusGlyph(r.Status), r.Message)
		}
	}

	fmt.Fprintf(&b, "\n%d tracked, %d in sync, %d need attention\n",
		len(reports), len(reports)-issues, issues)
	return b.String()
}

// outcomeLabel maps a run outcome to its display verb.
func outcomeLabel(o sync.Outcome) string {
	switch o {
	case sync.OutcomeSynced:
		return pterm.NewStyle(pterm.FgGreen).Sprint("synced")
	case sync.OutcomeAlready:
		return pterm.NewStyle(pterm.FgGray).Sprint("ok")
	case sync.OutcomeUpdatedRepo:
		return pterm.NewStyle(pterm.FgYellow).Sprint("updated")
	default:
		return pterm.NewStyle(pterm.FgYellow).Sprint("skipped")
	}
}

// RenderSyncResult renders per-file outcomes and the run summary.
func RenderSyncResult(result *sync.Result) string {
	var b strings.Builder
	for _, fr := range result.Files {
		fmt.Fprintf(&b, "  %-8s %s (%s)\n",
			outcomeLabel(fr.Outcome), fr.File.DestPath, fr.Message)
	}

	fmt.Fprintf(&b, "\n%d synced, %d already in place, %d updated, %d skipped\n",
		result.Synced, result.Already, result.Updated, result.Skipped)
	if len(result.Backups) > 0 {
		fmt.Fprintf(&b, "%d file(s) backed up\n", len(result.Backups))
	}
	return b.String()
}

// RenderBackups renders the backup listing, newest first, 1-indexed to match
// the restore selector.
func RenderBackups(backups []types.BackupInfo) string {
	if len(backups) == 0 {
		return pterm.NewStyle(pterm.FgYellow).Sprint("No backups found.") + "\n"
	}

	var b strings.Builder
	b.WriteString(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Available backups"))
	b.WriteString("\n")
	for i, bk := range backups {
		fmt.Fprintf(&b, "  %d. %s, %d file(s)\n",
			i+1,
			pterm.NewStyle(pterm.FgGreen).Sprint(bk.Timestamp.Format("2006-01-02 15:04:05")),
			len(bk.Files))
	}
	return b.String()
}

// RenderDryRunLog renders the ordered mutations a dry run recorded.
func RenderDryRunLog(ops []effects.LoggedOp) string {
	if len(ops) == 0 {
		return "No changes would be made.\n"
	}

	var b strings.Builder
	b.WriteString(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Planned operations"))
	b.WriteString("\n")
	for _, op := range ops {
		fmt.Fprintf(&b, "  %s\n", op)
	}
	fmt.Fprintf(&b, "\n%d operation(s); nothing was changed.\n", len(ops))
	return b.String()
}

// FreedSize renders a byte count the way humans read backup sizes.
func FreedSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
