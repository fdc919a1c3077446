// Package report renders the final grouping of a run.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/thebtf/logs-analyzer/pkg/models"
)

// Format is an output format.
type Format string

const (
	// FormatText is the line-oriented report, one [section] block per section.
	FormatText Format = "text"
	// FormatJSON is the indented JSON document built by Build.
	FormatJSON Format = "json"
)

// ParseFormat parses a format name. The empty string selects FormatText.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want %q or %q)", s, FormatText, FormatJSON)
	}
}

// Source is the read side of an analysis engine.
type Source interface {
	Sections() []models.Section
	Group(id models.GroupID) *models.Group
}

// WriteText writes the plain text report: one [section] header per section,
// then every non-empty group with its members, and for linked implicit groups
// the configured candidate line.
func WriteText(w io.Writer, src Source) error {
	bw := bufio.NewWriter(w)

	for _, s := range src.Sections() {
		fmt.Fprintf(bw, "[%s]\n", s.Name)

		for _, id := range s.Groups {
			g := src.Group(id)
			if g == nil || g.Count() == 0 {
				continue
			}

			fmt.Fprintf(bw, "%s: %d log(s)\n", g.Name, g.Count())
			for _, m := range g.Members {
				fmt.Fprintf(bw, "\t%s\n", m)
			}
			bw.WriteString("\n")

			if !g.HasNearest() {
				continue
			}
			if n := src.Group(g.Nearest); n != nil {
				fmt.Fprintf(bw, "\tConfigured candidate group (distance: %d) : %s ( %s )\n\n",
					g.NearestDistance, n.Name, n.Sample())
			}
		}

		bw.WriteString("\n")
	}

	return bw.Flush()
}
