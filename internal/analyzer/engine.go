// Package analyzer clusters log lines into groups by bounded edit distance.
package analyzer

import (
	"github.com/rs/zerolog/log"

	"github.com/thebtf/logs-analyzer/internal/config"
	"github.com/thebtf/logs-analyzer/pkg/models"
	"github.com/thebtf/logs-analyzer/pkg/similarity"
)

// Engine owns every group of a run. Groups live in an arena whose insertion
// order is the scan order of Assign: configured groups first, in configuration
// order, then implicit groups in creation order.
//
// Engine is not safe for concurrent use. Assignment is first-fit and the
// implicit group counter is order dependent, so callers must serialize Assign.
type Engine struct {
	groups   []*models.Group
	sections []models.Section
	byName   map[string]int // section name -> index in sections

	// seen routes a repeated line to the group that took it first. Samples
	// and threshold never change and groups are only appended, so a fresh
	// scan would stop at the same group.
	seen map[string]models.GroupID

	threshold int
	unknown   int // number of implicit groups created so far
	lines     int
}

// New builds an engine from the configured group sections. The reserved
// UNKNOWN section always comes first; a configured section of that name adds
// its groups to it.
func New(threshold int, sections []config.Section) *Engine {
	e := &Engine{
		byName:    make(map[string]int, len(sections)+1),
		seen:      make(map[string]models.GroupID),
		threshold: threshold,
	}
	e.section(models.SectionUnknown)

	for _, s := range sections {
		idx := e.section(s.Name)
		for _, entry := range s.Entries {
			id := models.GroupID(len(e.groups))
			e.groups = append(e.groups, models.NewConfiguredGroup(id, entry.Key, entry.Value))
			e.sections[idx].Groups = append(e.sections[idx].Groups, id)
		}
	}

	log.Debug().
		Int("threshold", threshold).
		Int("groups", len(e.groups)).
		Int("sections", len(e.sections)).
		Msg("Engine initialized")

	return e
}

func (e *Engine) section(name string) int {
	if idx, ok := e.byName[name]; ok {
		return idx
	}
	e.byName[name] = len(e.sections)
	e.sections = append(e.sections, models.Section{Name: name})
	return len(e.sections) - 1
}

// Assign adds line to the first group, in scan order, whose sample is within
// the threshold. A later group with a smaller distance is never preferred.
// When no group matches, a new implicit group is created with line as its
// sample. Assign returns the id of the group that received the line.
func (e *Engine) Assign(line, origin string) models.GroupID {
	e.lines++

	if id, ok := e.seen[line]; ok {
		e.groups[id].Add(origin, line)
		return id
	}

	for _, g := range e.groups {
		if similarity.Within(line, g.Sample(), e.threshold) {
			g.Add(origin, line)
			e.seen[line] = g.ID
			return g.ID
		}
	}

	e.unknown++
	id := models.GroupID(len(e.groups))
	g := models.NewImplicitGroup(id, e.unknown, line, origin)
	e.groups = append(e.groups, g)
	unknown := e.byName[models.SectionUnknown]
	e.sections[unknown].Groups = append(e.sections[unknown].Groups, id)
	e.seen[line] = id

	log.Debug().
		Str("group", g.Name).
		Str("origin", origin).
		Msg("New implicit group")

	return id
}

// Group returns the group with the given id, or nil.
func (e *Engine) Group(id models.GroupID) *models.Group {
	if id < 0 || int(id) >= len(e.groups) {
		return nil
	}
	return e.groups[id]
}

// Groups returns all groups in scan order.
func (e *Engine) Groups() []*models.Group {
	return e.groups
}

// Sections returns the sections in report order.
func (e *Engine) Sections() []models.Section {
	return e.sections
}

// Threshold returns the maximum edit distance for a match.
func (e *Engine) Threshold() int {
	return e.threshold
}

// Lines returns the number of lines assigned so far.
func (e *Engine) Lines() int {
	return e.lines
}

// Implicit returns the number of groups created at run time.
func (e *Engine) Implicit() int {
	return e.unknown
}
