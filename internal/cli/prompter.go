package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// Prompter asks questions on a terminal, or on any reader/writer pair in tests.
type Prompter struct {
	reader *NonBlockingReader
	writer io.Writer
	secret func() (string, error)
}

// NewPrompter creates a prompter. Secrets are read without echo when
// reader is a terminal.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}

	p := &Prompter{
		reader: NewNonBlockingReader(reader),
		writer: writer,
	}
	if f, ok := reader.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		p.secret = func() (string, error) {
			b, err := term.ReadPassword(fd)
			_, _ = fmt.Fprintln(p.writer)
			return string(b), err
		}
	}
	return p
}

// Println writes a line to the prompter output.
func (p *Prompter) Println(a ...any) {
	if _, err := fmt.Fprintln(p.writer, a...); err != nil {
		slog.Warn("Failed to write output", "error", err)
	}
}

func (p *Prompter) prompt(label, def string) error {
	if def != "" {
		label = fmt.Sprintf("%s [%s]", label, def)
	}
	if _, err := fmt.Fprint(p.writer, FormatPrompt(label)); err != nil {
		return fmt.Errorf("failed to write prompt: %w", err)
	}
	return nil
}

// Ask reads one answer. An empty answer yields def.
func (p *Prompter) Ask(ctx context.Context, label, def string) (string, error) {
	if err := p.prompt(label, def); err != nil {
		return "", err
	}
	answer, err := p.reader.ReadLine(ctx)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// AskValid repeats the question until check accepts the answer.
func (p *Prompter) AskValid(ctx context.Context, label, def string, check func(string) error) (string, error) {
	for {
		answer, err := p.Ask(ctx, label, def)
		if err != nil {
			return "", err
		}
		if check == nil {
			return answer, nil
		}
		checkErr := check(answer)
		if checkErr == nil {
			return answer, nil
		}
		p.Println(FormatError(checkErr.Error()))
	}
}

// AskRequired repeats the question until the answer is not blank.
func (p *Prompter) AskRequired(ctx context.Context, label, def string) (string, error) {
	return p.AskValid(ctx, label, def, Required)
}

// AskSecret reads a password without echo on terminals.
func (p *Prompter) AskSecret(ctx context.Context, label string) (string, error) {
	if err := p.prompt(label, ""); err != nil {
		return "", err
	}
	if p.secret == nil {
		return p.reader.ReadLine(ctx)
	}
	if err := ctx.Err(); err != nil {
		return "", ErrInputCancelled
	}
	return p.secret()
}

// Confirm asks a yes/no question.
func (p *Prompter) Confirm(ctx context.Context, label string, def bool) (bool, error) {
	hint := "s/N"
	if def {
		hint = "S/n"
	}
	for {
		answer, err := p.Ask(ctx, fmt.Sprintf("%s (%s)", label, hint), "")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "":
			return def, nil
		case "s", "sim", "y", "yes":
			return true, nil
		case "n", "nao", "não", "no":
			return false, nil
		}
		p.Println(FormatError("Responda s ou n."))
	}
}

// Choose lists options and returns the one picked by number or by name.
// An empty answer yields def when def is one of the options.
func (p *Prompter) Choose(ctx context.Context, label string, options []string, def string) (string, error) {
	if len(options) == 0 {
		return "", errors.New("no options to choose from")
	}
	for i, opt := range options {
		p.Println(fmt.Sprintf("  [%d] %s", i+1, opt))
	}
	for {
		answer, err := p.Ask(ctx, label, def)
		if err != nil {
			return "", err
		}
		if choice, ok := pick(options, answer); ok {
			return choice, nil
		}
		p.Println(FormatError("Opção inválida. Tente novamente."))
	}
}

func pick(options []string, answer string) (string, bool) {
	answer = strings.TrimSpace(answer)
	if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(options) {
		return options[n-1], true
	}
	for _, opt := range options {
		if strings.EqualFold(opt, answer) {
			return opt, true
		}
	}
	return "", false
}

// Required rejects blank answers.
func Required(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("campo obrigatório")
	}
	return nil
}
