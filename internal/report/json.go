package report

import (
	"io"

	"github.com/goccy/go-json"

	"github.com/thebtf/logs-analyzer/pkg/models"
)

// Meta describes the run a JSON report belongs to.
type Meta struct {
	RunID       string `json:"run_id"`
	NearestPool string `json:"nearest_pool"`
	Threshold   int    `json:"threshold"`
	Lines       int    `json:"lines"`
	Files       int    `json:"files"`
}

// Document is the JSON report.
type Document struct {
	Meta
	Sections []SectionJSON `json:"sections"`
}

// SectionJSON is a section of the JSON report.
type SectionJSON struct {
	Name   string      `json:"name"`
	Groups []GroupJSON `json:"groups"`
}

// GroupJSON is a group of the JSON report. Empty configured groups are
// included so that every declared pattern is visible.
type GroupJSON struct {
	Nearest  *NearestJSON    `json:"nearest,omitempty"`
	Name     string          `json:"name"`
	Sample   string          `json:"sample"`
	Members  []models.Member `json:"members"`
	ID       models.GroupID  `json:"id"`
	Count    int             `json:"count"`
	Implicit bool            `json:"implicit"`
}

// NearestJSON is the nearest-group link of an implicit group.
type NearestJSON struct {
	Name     string         `json:"name"`
	Sample   string         `json:"sample"`
	ID       models.GroupID `json:"id"`
	Distance int            `json:"distance"`
}

// Build assembles the JSON document for src.
func Build(meta Meta, src Source) Document {
	doc := Document{Meta: meta, Sections: []SectionJSON{}}

	for _, s := range src.Sections() {
		sj := SectionJSON{Name: s.Name, Groups: []GroupJSON{}}
		for _, id := range s.Groups {
			g := src.Group(id)
			if g == nil {
				continue
			}
			gj := GroupJSON{
				ID:       g.ID,
				Name:     g.Name,
				Sample:   g.Sample(),
				Implicit: g.Implicit,
				Count:    g.Count(),
				Members:  g.Members,
			}
			if gj.Members == nil {
				gj.Members = []models.Member{}
			}
			if g.HasNearest() {
				if n := src.Group(g.Nearest); n != nil {
					gj.Nearest = &NearestJSON{ID: n.ID, Name: n.Name, Sample: n.Sample(), Distance: g.NearestDistance}
				}
			}
			sj.Groups = append(sj.Groups, gj)
		}
		doc.Sections = append(doc.Sections, sj)
	}

	return doc
}

// WriteJSON writes the indented JSON report.
func WriteJSON(w io.Writer, meta Meta, src Source) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Build(meta, src))
}
