// Package prompt asks the operator yes/no questions.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Prompter answers yes/no questions.
type Prompter interface {
	YesNo(question string) bool
}

// Unattended answers yes to everything without reading any input.
type Unattended struct{}

func (Unattended) YesNo(string) bool { return true }

// Terminal asks the question on Out and reads the answer from In.
// Only an explicit "n" or "no" is a refusal; an empty answer or a closed
// input counts as yes.
type Terminal struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

// NewTerminal constructs a terminal prompter.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{In: in, Out: out}
}

func (t *Terminal) YesNo(question string) bool {
	if t.reader == nil {
		t.reader = bufio.NewReader(t.In)
	}

	fmt.Fprintf(t.Out, "%s %s %s ", color.YellowString(" ?"), question, color.New(color.FgHiBlack).Sprint("[Y/n]"))

	answer, _ := t.reader.ReadString('\n')
	return !Refused(answer)
}

// Refused reports whether answer declines the question.
func Refused(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "n", "no":
		return true
	default:
		return false
	}
}
