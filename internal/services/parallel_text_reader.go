package services

import (
	"bufio"
	"errors"
	"io"
)

// parallelTextReader yields the raw lines of a parallel-text stream one at a
// time together with their 1-based line numbers. Lines are not length limited.
type parallelTextReader struct {
	r    *bufio.Reader
	line int
	text string
	err  error
}

func newParallelTextReader(r io.Reader) *parallelTextReader {
	return &parallelTextReader{r: bufio.NewReader(r)}
}

// Next advances to the next line. It returns false at end of input or on a
// read error, which Err then reports.
func (p *parallelTextReader) Next() bool {
	if p.err != nil {
		return false
	}
	text, err := p.r.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			p.err = err
			return false
		}
		// A final line without a newline still counts
		if text == "" {
			return false
		}
	}
	p.line++
	p.text = text
	return true
}

// Line returns the 1-based number of the current line
func (p *parallelTextReader) Line() int {
	return p.line
}

// Text returns the current line including its terminator, if any
func (p *parallelTextReader) Text() string {
	return p.text
}

// Err returns the first non-EOF read error
func (p *parallelTextReader) Err() error {
	return p.err
}
