package console

import (
	"bufio"
	"io"
	"strings"
)

// prompter reads whitespace separated answers, with whole-line reads for
// free text such as the player's name.
type prompter struct {
	scanner *bufio.Scanner
	pending []string
}

func newPrompter(r io.Reader) *prompter {
	return &prompter{scanner: bufio.NewScanner(r)}
}

// line discards any buffered tokens and returns the next full line
func (p *prompter) line() (string, error) {
	p.pending = nil
	if !p.scanner.Scan() {
		return "", p.eof()
	}
	return strings.TrimRight(p.scanner.Text(), "\r"), nil
}

// token returns the next whitespace separated word, reading more lines as
// needed
func (p *prompter) token() (string, error) {
	for len(p.pending) == 0 {
		if !p.scanner.Scan() {
			return "", p.eof()
		}
		p.pending = strings.Fields(p.scanner.Text())
	}
	tok := p.pending[0]
	p.pending = p.pending[1:]
	return tok, nil
}

func (p *prompter) eof() error {
	if err := p.scanner.Err(); err != nil {
		return err
	}
	return ErrInputClosed
}
