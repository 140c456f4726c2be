package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kalambet/reframe/internal/storage"
	"github.com/kalambet/reframe/internal/suggest"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorDim    = "\033[2m"
	colorBold   = "\033[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorGreen, "✓ "+msg))
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorRed, "✗ "+msg))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorYellow, "⚠ "+msg))
}

func printStatus(label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	l := colorize(colorBold, label+":")
	fmt.Fprintf(os.Stderr, "  %s %s\n", l, val)
}

func printStep(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorCyan, "→ "+msg))
}

// writeSuggestions prints numbered suggestions so they can be picked by number.
func writeSuggestions(w io.Writer, items []string) {
	for i, s := range items {
		fmt.Fprintf(w, "  %s %s\n", colorize(colorCyan, fmt.Sprintf("[%d]", i+1)), s)
	}
}

func writeInsight(w io.Writer, in suggest.Insight) {
	if in.IsZero() {
		return
	}
	if in.Summary != "" {
		fmt.Fprintf(w, "%s %s\n", colorize(colorBold, "Summary:"), in.Summary)
	}
	for _, p := range in.Pointers {
		fmt.Fprintf(w, "  • %s\n", p)
	}
	if in.Conclusion != "" {
		fmt.Fprintf(w, "%s %s\n", colorize(colorBold, "Conclusion:"), in.Conclusion)
	}
}

func writeRecord(w io.Writer, r storage.ThoughtRecord) {
	fmt.Fprintf(w, "%s  %s\n", colorize(colorCyan, shortID(r.ID)), colorize(colorDim, r.CreatedAt.Local().Format("2006-01-02 15:04")))
	row := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(w, "  %s %s\n", colorize(colorBold, label+":"), value)
	}
	row("Situation", r.Situation)
	row("ANTs", r.ANTs)
	row("Behaviors", r.Behaviors)
	row("Distortions", strings.Join(r.Distortions, ", "))
	row("Evidence against", r.EvidenceAgainst)
	row("Friend's advice", r.FriendsAdvice)
	row("Balanced thought", r.BalancedThought)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
