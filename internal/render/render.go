package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spigell/ats-matcher/internal/analysis"
)

// Format selects how a report is written.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use text, json or yaml)", s)
	}
}

// Report writes r to w in the requested format.
func Report(w io.Writer, format Format, r *analysis.Report) error {
	if r == nil {
		return fmt.Errorf("report is required")
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		return text(w, r)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func text(w io.Writer, r *analysis.Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Match score: %d%% (%s)\n", r.Score, r.Band)
	fmt.Fprintf(&b, "%s\n\n", bar(r.Score))

	b.WriteString("Missing keywords:\n")
	if len(r.MissingKeywords) == 0 {
		b.WriteString("  none\n")
	}
	for _, kw := range r.MissingKeywords {
		fmt.Fprintf(&b, "  - %s\n", kw)
	}

	summary := r.Summary
	if summary == "" {
		summary = "No summary."
	}
	fmt.Fprintf(&b, "\nSummary: %s\n", summary)
	fmt.Fprintf(&b, "\nScorer: %s, CV chars: %d, job chars: %d\n", r.Scorer, r.CVChars, r.JobChars)

	_, err := io.WriteString(w, b.String())
	return err
}

func bar(score int) string {
	const width = 20
	filled := score * width / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}
