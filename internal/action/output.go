package action

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Output is where generators put their files. In check mode nothing is
// written; files whose content would change are recorded as stale.
type Output struct {
	Dir   string
	Check bool

	written   []string
	unchanged []string
	stale     []string
	diffs     map[string]string
}

func NewOutput(dir string, check bool) *Output {
	return &Output{Dir: dir, Check: check, diffs: make(map[string]string)}
}

// Path returns the location of name inside the output directory
func (o *Output) Path(name string) string {
	return filepath.Join(o.Dir, filepath.FromSlash(name))
}

// WriteFile writes content to name unless the file already holds exactly
// that content
func (o *Output) WriteFile(name string, content []byte) error {
	path := o.Path(name)

	old, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err == nil && bytes.Equal(old, content) {
		o.unchanged = append(o.unchanged, name)
		return nil
	}

	if o.Check {
		o.stale = append(o.stale, name)
		o.diffs[name] = lineDiff(string(old), string(content))
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return err
	}
	o.written = append(o.written, name)
	return nil
}

// WriteString is WriteFile for string content
func (o *Output) WriteString(name, content string) error {
	return o.WriteFile(name, []byte(content))
}

func (o *Output) Written() []string   { return o.written }
func (o *Output) Unchanged() []string { return o.unchanged }
func (o *Output) Stale() []string     { return o.stale }

// Diff returns the line diff recorded for a stale file in check mode
func (o *Output) Diff(name string) string { return o.diffs[name] }

// lineDiff renders a line-based diff with +/- prefixes
func lineDiff(before, after string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		default:
			prefix = " "
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				sb.WriteByte('\n')
			}
		}
	}
	return sb.String()
}
