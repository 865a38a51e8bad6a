// Package models defines the records and request/summary types of the splitter.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	contextutils "parallelsplit/internal/utils"
)

// FieldSeparator separates the source and target sentence on a parallel-text line
const FieldSeparator = "\t"

// ErrBlankLine is returned by ParseParallelLine for a line that is empty after trimming
var ErrBlankLine = errors.New("blank line")

// ParallelRecord is one aligned sentence pair read from a parallel-text file
type ParallelRecord struct {
	Line   int    `json:"line"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// Join rebuilds the trimmed input line the record was parsed from
func (r ParallelRecord) Join() string {
	return r.Source + FieldSeparator + r.Target
}

// ParseParallelLine trims surrounding whitespace from raw and splits it on the
// first tab. Any further tabs stay in Target. lineNo is 1-based and is carried
// into the record and into any error.
func ParseParallelLine(raw string, lineNo int) (ParallelRecord, error) {
	if !utf8.ValidString(raw) {
		return ParallelRecord{}, contextutils.NewLineError(contextutils.ErrInvalidEncoding, lineNo,
			"line is not valid UTF-8")
	}

	line := strings.TrimSpace(raw)
	if line == "" {
		return ParallelRecord{}, ErrBlankLine
	}

	source, target, found := strings.Cut(line, FieldSeparator)
	if !found {
		return ParallelRecord{}, contextutils.NewLineError(contextutils.ErrMalformedRecord, lineNo,
			fmt.Sprintf("no tab separator in %q", preview(line)))
	}

	return ParallelRecord{Line: lineNo, Source: source, Target: target}, nil
}

// preview shortens long lines for error messages without splitting a rune
func preview(line string) string {
	const maxRunes = 60
	if utf8.RuneCountInString(line) <= maxRunes {
		return line
	}
	runes := []rune(line)
	return string(runes[:maxRunes]) + "..."
}

// SplitRequest names the files for one split run
type SplitRequest struct {
	InputPath        string `json:"input_path"`
	SourceOutputPath string `json:"source_output_path"`
	TargetOutputPath string `json:"target_output_path"`
}

// SplitSummary reports what a split or check run did
type SplitSummary struct {
	InputPath        string `json:"input_path"`
	SourceOutputPath string `json:"source_output_path,omitempty"`
	TargetOutputPath string `json:"target_output_path,omitempty"`
	LinesRead        int    `json:"lines_read"`
	// Records counts sentence pairs. BlankLines counts empty lines, written
	// as an empty line to both outputs, so Records+BlankLines == LinesRead
	// after a successful split.
	Records    int           `json:"records"`
	BlankLines int           `json:"blank_lines"`
	Duration   time.Duration `json:"duration"`
}
