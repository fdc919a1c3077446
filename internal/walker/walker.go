// Package walker reads log lines from files, directories and glob patterns
// in a deterministic order.
package walker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog/log"
)

// LineFunc receives every line read, with the path of the file it came from.
type LineFunc func(origin, line string)

// Stats summarizes a walk.
type Stats struct {
	Errors  []error // one per source or file that could not be fully read
	Files   int
	Lines   int
	Missing int // sources that matched nothing
}

// walkState carries one Walk call.
type walkState struct {
	visited map[string]bool // resolved directories of the current source, guards symlink cycles
	fn      LineFunc
	stats   Stats
}

// Walk reads every source in order. A source is a file, a directory read
// recursively with entries in lexicographic order, or a doublestar glob whose
// matches are sorted. Sources are not de-duplicated: a file or directory
// listed twice, or reached by two sources, is read twice. Files that cannot be
// read are logged and skipped; Walk only returns an error when ctx is canceled.
func Walk(ctx context.Context, sources []string, fn LineFunc) (Stats, error) {
	w := &walkState{fn: fn}

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return w.stats, err
		}
		w.visited = make(map[string]bool)
		if err := w.source(ctx, src); err != nil {
			return w.stats, err
		}
	}

	return w.stats, nil
}

func (w *walkState) source(ctx context.Context, src string) error {
	if _, err := os.Stat(src); err == nil || !isPattern(src) {
		if err != nil {
			w.missing(src, err)
			return nil
		}
		return w.entry(ctx, src)
	}

	matches, err := doublestar.FilepathGlob(src)
	if err != nil {
		w.fail(src, fmt.Errorf("glob %s: %w", src, err))
		return nil
	}
	if len(matches) == 0 {
		w.missing(src, os.ErrNotExist)
		return nil
	}
	sort.Strings(matches)

	for _, m := range matches {
		if err := w.entry(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (w *walkState) entry(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		w.fail(path, err)
		return nil
	}
	if !info.IsDir() {
		if info.Mode().IsRegular() {
			w.file(path)
		}
		return nil
	}

	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		w.fail(path, err)
		return nil
	}
	if w.visited[resolved] {
		log.Debug().Str("path", path).Msg("Directory already visited, skipping")
		return nil
	}
	w.visited[resolved] = true

	// os.ReadDir returns entries sorted by file name.
	entries, err := os.ReadDir(path)
	if err != nil {
		w.fail(path, err)
		return nil
	}
	for _, e := range entries {
		if err := w.entry(ctx, filepath.Join(path, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (w *walkState) file(path string) {
	f, err := os.Open(path)
	if err != nil {
		w.fail(path, err)
		return
	}
	defer f.Close()

	w.stats.Files++
	n, err := ReadLines(f, func(line string) { w.fn(path, line) })
	w.stats.Lines += n
	if err != nil {
		w.fail(path, fmt.Errorf("read after %d lines: %w", n, err))
	}
}

func (w *walkState) fail(path string, err error) {
	log.Warn().Err(err).Str("path", path).Msg("Skipping unreadable log source")
	w.stats.Errors = append(w.stats.Errors, fmt.Errorf("%s: %w", path, err))
}

func (w *walkState) missing(src string, err error) {
	log.Warn().Err(err).Str("source", src).Msg("Log source not found")
	w.stats.Missing++
}

// ReadLines calls fn for every line of r, without the line terminator ("\n"
// or "\r\n"). A final line without terminator is delivered too. It returns the
// number of lines delivered and the first read error other than io.EOF.
func ReadLines(r io.Reader, fn func(line string)) (int, error) {
	br := bufio.NewReader(r)
	n := 0
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			if err == nil || errors.Is(err, io.EOF) {
				line = strings.TrimSuffix(line, "\n")
				line = strings.TrimSuffix(line, "\r")
				fn(line)
				n++
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			return n, err
		}
	}
}

func isPattern(src string) bool {
	return strings.ContainsAny(src, "*?[{")
}
