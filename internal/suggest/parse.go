package suggest

import (
	"regexp"
	"strings"
)

var (
	suggestionSplit = regexp.MustCompile(`\n|\d+\. `)
	insightKeyword  = regexp.MustCompile(`(?i)pointers|suggestions|consider|conclusion`)
	insightHeader   = regexp.MustCompile(`(?i)^\s*(pointers|suggestions|consider|conclusion)\s*:\s*$`)
	listMarker      = regexp.MustCompile(`^\s*(?:\d+[.)]|[*•-])\s*`)
)

// Insight is the rolling summary panel shown next to the wizard.
type Insight struct {
	Summary    string   `json:"summary"`
	Pointers   []string `json:"pointers"`
	Conclusion string   `json:"conclusion"`
}

// IsZero reports whether the panel is empty.
func (in Insight) IsZero() bool {
	return in.Summary == "" && len(in.Pointers) == 0 && in.Conclusion == ""
}

// ParseSuggestions splits a completion into suggestions on newlines and on
// "N. " list markers. Segments are trimmed and empty ones dropped; order is
// preserved.
func ParseSuggestions(text string) []string {
	parts := suggestionSplit.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseInsight splits a completion into a summary and either pointers or,
// when terminal, a conclusion.
//
// Leading lines form the summary until a line mentions one of pointers,
// suggestions, consider or conclusion. The remaining lines lose bare
// "<keyword>:" headers and leading list markers. A first line that happens to
// contain a keyword ends the summary immediately.
func ParseInsight(text string, terminal bool) Insight {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l != "" {
			lines = append(lines, l)
		}
	}

	var summary []string
	i := 0
	for ; i < len(lines) && !insightKeyword.MatchString(lines[i]); i++ {
		if t := strings.TrimSpace(lines[i]); t != "" {
			summary = append(summary, t)
		}
	}

	var rest []string
	for _, l := range lines[i:] {
		if strings.TrimSpace(l) == "" || insightHeader.MatchString(l) {
			continue
		}
		if t := strings.TrimSpace(listMarker.ReplaceAllString(l, "")); t != "" {
			rest = append(rest, t)
		}
	}

	in := Insight{Summary: strings.Join(summary, " ")}
	if terminal {
		in.Conclusion = strings.Join(rest, " ")
		in.Pointers = []string{}
	} else {
		in.Pointers = rest
		if in.Pointers == nil {
			in.Pointers = []string{}
		}
	}
	return in
}

// ParseList splits a comma-separated completion, such as a list of
// distortion names, into trimmed non-empty items. Newline-separated and
// numbered output is accepted too.
func ParseList(text string) []string {
	var out []string
	for _, line := range ParseSuggestions(text) {
		for _, item := range strings.Split(line, ",") {
			item = strings.TrimSpace(listMarker.ReplaceAllString(item, ""))
			if item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}
