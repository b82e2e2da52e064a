// Package roster parses member roster files: semicolon-separated text whose
// first line is a header and whose rows start with surname;firstname.
package roster

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"rumclub/internal/core"
)

const maxLineBytes = 1 << 20

// Report summarizes an import. Skipped counts malformed or blank rows.
type Report struct {
	Rows       int
	Skipped    int
	Duplicates int
	Members    []string
}

// Parse reads a roster and returns the formatted, deduplicated and sorted
// member names. Each line is split on ';' on its own, so a malformed row is
// skipped without affecting the rows after it. Files that are not valid UTF-8
// are read as Windows-1252, the usual spreadsheet export.
func Parse(r io.Reader) (Report, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Report{}, fmt.Errorf("read roster: %w", err)
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	var src io.Reader = bytes.NewReader(raw)
	if !utf8.Valid(raw) {
		src = transform.NewReader(src, charmap.Windows1252.NewDecoder())
	}

	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var (
		rep    Report
		header = true
		seen   = map[string]struct{}{}
	)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if header {
			header = false
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		rep.Rows++
		fields := strings.Split(line, ";")
		if len(fields) < 2 {
			rep.Skipped++
			continue
		}
		name := core.FormatMemberName(unquote(fields[0]), unquote(fields[1]))
		if name == "" {
			rep.Skipped++
			continue
		}
		if _, dup := seen[name]; dup {
			rep.Duplicates++
			continue
		}
		seen[name] = struct{}{}
		rep.Members = append(rep.Members, name)
	}
	if err := sc.Err(); err != nil {
		return Report{}, fmt.Errorf("parse roster: %w", err)
	}
	sort.Strings(rep.Members)
	if rep.Members == nil {
		rep.Members = []string{}
	}
	return rep, nil
}

// unquote trims blanks and stray spreadsheet quotes around a field.
func unquote(field string) string {
	return strings.Trim(strings.TrimSpace(field), `"`)
}
