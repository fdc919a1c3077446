package config

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
)

// Problem describes an INI line that was skipped or merged.
type Problem struct {
	Text   string
	Reason string
	Line   int
}

// Document is a parsed INI file with sections and keys in file order.
type Document struct {
	Sections []Section
	Problems []Problem

	index map[string]int // section name -> position in Sections
}

// Section returns the named section, or nil.
func (d *Document) Section(name string) *Section {
	i, ok := d.index[name]
	if !ok {
		return nil
	}
	return &d.Sections[i]
}

// ParseINI reads INI content. Malformed lines do not fail the parse, they are
// recorded in Problems and skipped.
func ParseINI(r io.Reader) (*Document, error) {
	doc := &Document{index: make(map[string]int)}
	current := -1

	reader := bufio.NewReader(r)
	lineNo := 0
	for {
		raw, err := reader.ReadString('\n')
		if raw == "" && err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		lineNo++

		line := strings.TrimSpace(raw)
		switch {
		case line == "", strings.HasPrefix(line, "#"):
			// blank or comment
		case strings.HasPrefix(line, "["):
			current = doc.openSection(line, lineNo)
		default:
			doc.addEntry(current, line, lineNo)
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	return doc, nil
}

func (d *Document) openSection(line string, lineNo int) int {
	name := strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
	if i, ok := d.index[name]; ok {
		d.Problems = append(d.Problems, Problem{
			Line:   lineNo,
			Text:   line,
			Reason: "duplicate section, entries appended to the first occurrence",
		})
		return i
	}
	d.index[name] = len(d.Sections)
	d.Sections = append(d.Sections, Section{Name: name})
	return len(d.Sections) - 1
}

func (d *Document) addEntry(current int, line string, lineNo int) {
	eq := strings.IndexByte(line, '=')
	switch {
	case eq < 0:
		d.Problems = append(d.Problems, Problem{Line: lineNo, Text: line, Reason: "missing '=' separator"})
		return
	case eq == 0:
		d.Problems = append(d.Problems, Problem{Line: lineNo, Text: line, Reason: "empty key"})
		return
	case current < 0:
		d.Problems = append(d.Problems, Problem{Line: lineNo, Text: line, Reason: "entry outside of any section"})
		return
	}

	key := strings.TrimSpace(line[:eq])
	value := strings.TrimSpace(line[eq+1:])
	if key == "" {
		d.Problems = append(d.Problems, Problem{Line: lineNo, Text: line, Reason: "empty key"})
		return
	}

	s := &d.Sections[current]
	for i := range s.Entries {
		if s.Entries[i].Key == key {
			s.Entries[i].Value = value
			d.Problems = append(d.Problems, Problem{Line: lineNo, Text: line, Reason: "duplicate key, value replaced"})
			return
		}
	}
	s.Entries = append(s.Entries, Entry{Key: key, Value: value})
}

// decodeINI turns an INI file into a Config, logging every skipped line.
func decodeINI(path string, r io.Reader) (*Config, error) {
	doc, err := ParseINI(r)
	if err != nil {
		return nil, err
	}

	for _, p := range doc.Problems {
		log.Warn().
			Str("path", path).
			Int("line", p.Line).
			Str("text", p.Text).
			Str("reason", p.Reason).
			Msg("Malformed configuration line")
	}

	cfg := &Config{Distance: DefaultDistance}
	for _, s := range doc.Sections {
		if s.Name != SectionConfig {
			cfg.Sections = append(cfg.Sections, s)
			continue
		}
		for _, e := range s.Entries {
			if e.Key != KeyDistance {
				cfg.Sources = append(cfg.Sources, e.Value)
				continue
			}
			d, err := ParseDistance(e.Value)
			if err != nil {
				return nil, fmt.Errorf("section %s: %w", SectionConfig, err)
			}
			cfg.Distance = d
		}
	}

	return cfg, nil
}
