package usi

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Engine is a running USI engine process.
type Engine struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser
	lines  *lineWriter
}

// StartEngine launches path with its directory as working directory, which
// is where most engines look for their evaluation files.
func StartEngine(ctx context.Context, path string, args ...string) (*Engine, error) {
	if path == "" {
		return nil, errors.New("engine path is required")
	}
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = filepath.Dir(path)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &Engine{cmd: cmd, stdout: stdout, stderr: stderr, lines: &lineWriter{w: stdin}}, nil
}

func (e *Engine) Stderr() io.Reader {
	return e.stderr
}

func (e *Engine) Send(line string) error {
	return e.lines.Send(line)
}

// Close sends quit and waits briefly before killing the process.
func (e *Engine) Close() error {
	if !e.lines.shutdown() {
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- e.cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(3 * time.Second):
		_ = e.cmd.Process.Kill()
		return errors.New("engine did not exit in time")
	}
}

// lineWriter serializes protocol lines onto a writer.
type lineWriter struct {
	mu     sync.Mutex
	w      io.Writer
	closed bool
}

func (l *lineWriter) Send(line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return errors.New("engine is closed")
	}
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	_, err := io.WriteString(l.w, line)
	return err
}

// shutdown writes quit once and reports whether this call did it.
func (l *lineWriter) shutdown() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	_, _ = io.WriteString(l.w, "quit\n")
	l.closed = true
	if c, ok := l.w.(io.Closer); ok {
		_ = c.Close()
	}
	return true
}
