package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"syscall"

	"github.com/c-bata/go-prompt"
	"golang.org/x/term"
)

type readKind int

const (
	readLine readKind = iota
	readSecret
)

type readResult struct {
	text string
	err  error
}

// reading is one terminal read in progress.
type reading struct {
	kind readKind
	ch   chan readResult
}

// terminalPrompter answers provider dialogs on the controlling terminal.
//
// Terminal reads cannot be interrupted. A read abandoned on dismissal is kept
// as pending so that at most one reader owns stdin: the next dialog of the
// same kind takes its answer instead of starting a second reader, and a
// dialog of the other kind waits for it and discards the line.
type terminalPrompter struct {
	mu      sync.Mutex
	pending *reading
}

func newTerminalPrompter() *terminalPrompter {
	return &terminalPrompter{}
}

func (p *terminalPrompter) Confirm(ctx context.Context, title, body string) (bool, error) {
	fmt.Printf("\n%s\n%s\n", title, body)
	answer, err := p.read(ctx, readLine, func() (string, error) {
		return prompt.Input("{approve y/N}>>> ", emptyCompleter, getStyleOptions()...), nil
	})
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (p *terminalPrompter) Secret(ctx context.Context, title string) (string, error) {
	fmt.Printf("\n%s (leave empty to decline):\n", title)
	secret, err := p.read(ctx, readSecret, func() (string, error) {
		b, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read secret: %w", err)
		}
		return string(b), nil
	})
	return strings.TrimSpace(secret), err
}

func (p *terminalPrompter) read(ctx context.Context, kind readKind, fn func() (string, error)) (string, error) {
	p.mu.Lock()
	r := p.pending
	p.pending = nil
	p.mu.Unlock()

	if r != nil {
		select {
		case <-r.ch:
			// Answered before this dialog was shown.
			r = nil
		default:
		}
	}
	if r != nil && r.kind != kind {
		fmt.Println("Press Enter to close the previous request.")
		select {
		case <-r.ch:
			r = nil
		case <-ctx.Done():
			p.abandon(r)
			return "", ctx.Err()
		}
	}
	if r == nil {
		r = startReading(kind, fn)
	}

	select {
	case res := <-r.ch:
		return res.text, res.err
	case <-ctx.Done():
		p.abandon(r)
		fmt.Println("\nRequest dismissed.")
		return "", ctx.Err()
	}
}

func (p *terminalPrompter) abandon(r *reading) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = r
}

func startReading(kind readKind, fn func() (string, error)) *reading {
	r := &reading{kind: kind, ch: make(chan readResult, 1)}
	go func() {
		text, err := fn()
		r.ch <- readResult{text: text, err: err}
	}()
	return r
}
