// Package models contains domain models for logs-analyzer.
package models

import "fmt"

// SectionUnknown is the reserved section holding groups created at run time.
const SectionUnknown = "UNKNOWN"

// GroupID addresses a group in the engine arena. It is also the group's
// position in the global scan order.
type GroupID int

// NoGroup marks an unset group reference.
const NoGroup GroupID = -1

// Member is a log line together with the file it was read from.
type Member struct {
	Origin string `json:"origin"`
	Line   string `json:"line"`
}

// String renders the member the way it appears in text reports.
func (m Member) String() string {
	return m.Origin + "> " + m.Line
}

// Group is a named cluster of log lines similar to one sample.
type Group struct {
	Name    string
	Members []Member
	sample  string

	// Nearest and NearestDistance are only set on implicit groups, by the
	// post-analysis pass.
	Nearest         GroupID
	NearestDistance int

	ID       GroupID
	Implicit bool
}

// NewConfiguredGroup creates an empty group declared by configuration.
func NewConfiguredGroup(id GroupID, name, sample string) *Group {
	return &Group{
		ID:      id,
		Name:    name,
		sample:  sample,
		Nearest: NoGroup,
	}
}

// NewImplicitGroup creates a group for a line that matched nothing. The line
// becomes both the sample and the first member.
func NewImplicitGroup(id GroupID, number int, line, origin string) *Group {
	g := &Group{
		ID:       id,
		Name:     ImplicitGroupName(number),
		sample:   line,
		Implicit: true,
		Nearest:  NoGroup,
	}
	g.Add(origin, line)
	return g
}

// ImplicitGroupName returns the display name of the n-th implicit group.
func ImplicitGroupName(n int) string {
	return fmt.Sprintf("Unknown group n%d", n)
}

// Sample returns the representative line the group is matched against.
func (g *Group) Sample() string {
	return g.sample
}

// Add appends a member to the group.
func (g *Group) Add(origin, line string) {
	g.Members = append(g.Members, Member{Origin: origin, Line: line})
}

// Count returns the number of members.
func (g *Group) Count() int {
	return len(g.Members)
}

// HasNearest reports whether the post-analysis pass linked this group.
func (g *Group) HasNearest() bool {
	return g.Nearest != NoGroup
}

// Section is a named, ordered collection of groups.
type Section struct {
	Name   string
	Groups []GroupID
}
