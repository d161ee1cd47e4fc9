package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/AndrewLang/matrix-codex-flow/pkg/types"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("marshal JSON: %w", err))
	}
	fmt.Fprintln(w, string(out))
	return nil
}

// formatTime renders epoch milliseconds in local time; zero renders as "-".
func formatTime(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}

var (
	pendingColor    = color.New(color.FgHiBlack)
	inProgressColor = color.New(color.FgYellow)
	completedColor  = color.New(color.FgGreen)
	failedColor     = color.New(color.FgRed)
	headingColor    = color.New(color.FgCyan, color.Bold)
	roleColor       = color.New(color.FgMagenta)
)

func statusLabel(s types.TaskStatus) string {
	label := "[" + s.String() + "]"
	switch s {
	case types.StatusInProgress:
		return inProgressColor.Sprint(label)
	case types.StatusCompleted:
		return completedColor.Sprint(label)
	case types.StatusFailed:
		return failedColor.Sprint(label)
	default:
		return pendingColor.Sprint(label)
	}
}
