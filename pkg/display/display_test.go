package display_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/arthur-debert/homelink/pkg/display"
	"github.com/arthur-debert/homelink/pkg/effects"
	"github.com/arthur-debert/homelink/pkg/sync"
	"github.com/arthur-debert/homelink/pkg/types"
)

func TestRenderStatusReportsGroupsByTool(t *testing.T) {
	reports := []types.StatusReport{
		{File: types.TrackedFile{Tool: "zsh"}, Status: types.StatusSynced, Message: "/home/u/.zshrc"},
		{File: types.TrackedFile{Tool: "vim"}, Status: types.StatusMissing, Message: "missing: /home/u/.vimrc"},
		{File: types.TrackedFile{Tool: "vim"}, Status: types.StatusSynced, Message: "/home/u/.vimrc2"},
	}

	out := display.RenderStatusReports(reports)
	assert.Contains(t, out, "vim")
	assert.Contains(t, out, "zsh")
	assert.Contains(t, out, "missing: /home/u/.vimrc")
	assert.Contains(t, out, "3 tracked, 2 in sync, 1 need attention")

	// Sorted tool order.
	assert.Less(t, strings.Index(out, "vim"), strings.Index(out, "zsh"))
}

func TestRenderStatusReportsEmpty(t *testing.T) {
	out := display.RenderStatusReports(nil)
	assert.Contains(t, out, "No tracked files")
}

func TestRenderSyncResult(t *testing.T) {
	result := &sync.Result{
		Files: []sync.FileResult{
			{File: types.TrackedFile{DestPath: "/h/.vimrc"}, Outcome: sync.OutcomeSynced, Message: "linked"},
			{File: types.TrackedFile{DestPath: "/h/.zshrc"}, Outcome: sync.OutcomeSkipped, Message: "skipped (conflict)"},
		},
		Synced:  1,
		Skipped: 1,
		Backups: []string{"/b/x"},
	}

	out := display.RenderSyncResult(result)
	assert.Contains(t, out, "/h/.vimrc")
	assert.Contains(t, out, "1 synced, 0 already in place, 0 updated, 1 skipped")
	assert.Contains(t, out, "1 file(s) backed up")
}

func TestRenderBackups(t *testing.T) {
	ts := time.Date(2026, 8, 29, 10, 0, 0, 0, time.Local)
	out := display.RenderBackups([]types.BackupInfo{
		{Path: "/b/20260829_100000", Timestamp: ts, Files: []string{"a", "b"}},
	})
	assert.Contains(t, out, "1. ")
	assert.Contains(t, out, "2026-08-29 10:00:00")
	assert.Contains(t, out, "2 file(s)")

	assert.Contains(t, display.RenderBackups(nil), "No backups")
}

func TestRenderDryRunLog(t *testing.T) {
	out := display.RenderDryRunLog([]effects.LoggedOp{
		{Kind: effects.KindSymlink, Path: "/repo/vimrc", Dest: "/h/.vimrc"},
		{Kind: effects.KindRemove, Path: "/h/.old"},
	})
	assert.Contains(t, out, "symlink /repo/vimrc -> /h/.vimrc")
	assert.Contains(t, out, "remove /h/.old")
	assert.Contains(t, out, "2 operation(s)")

	assert.Contains(t, display.RenderDryRunLog(nil), "No changes")
}

func TestFreedSize(t *testing.T) {
	assert.Equal(t, "512 B", display.FreedSize(512))
	assert.Equal(t, "1.0 KiB", display.FreedSize(1024))
	assert.Equal(t, "1.5 MiB", display.FreedSize(1536*1024))
}
