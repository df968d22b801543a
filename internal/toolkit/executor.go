package toolkit

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// CommandRunner is the interface for running commands.
type CommandRunner interface {
	Run(ctx context.Context, name string, args []string, env []string) (stdout, stderr []byte, err error)
}

// maxLine bounds a single logged line. Longer runs without a line break are
// logged in chunks.
const maxLine = 64 * 1024

// pipeGrace is how long output is still read after cancellation before the
// pipes are closed. Descendants that left the process group can hold them open.
const pipeGrace = 2 * time.Second

// ExecCommandRunner uses os/exec.
// Both pipes are drained concurrently and each line is mirrored to the debug log.
// On cancellation the whole process group is killed.
type ExecCommandRunner struct{}

// Run runs a command.
func (ExecCommandRunner) Run(ctx context.Context, name string, args []string, env []string) (stdout, stderr []byte, err error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	setProcessGroup(cmd)
	cmd.WaitDelay = pipeGrace

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, err
	}

	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}

	drained := make(chan struct{})
	go func() {
		select {
		case <-drained:
			return
		case <-ctx.Done():
		}
		t := time.NewTimer(pipeGrace)
		defer t.Stop()
		select {
		case <-drained:
		case <-t.C:
			_ = stdoutPipe.Close()
			_ = stderrPipe.Close()
		}
	}()

	tool := filepath.Base(name)
	var outBuf, errBuf bytes.Buffer
	var g errgroup.Group
	g.Go(func() error { return drain(stdoutPipe, &outBuf, tool, "stdout") })
	g.Go(func() error { return drain(stderrPipe, &errBuf, tool, "stderr") })

	readErr := g.Wait()
	close(drained)
	waitErr := cmd.Wait()

	if readErr != nil && ctx.Err() == nil {
		slog.Warn("Toolkit output was not fully read", "tool", tool, "error", readErr)
	}
	return outBuf.Bytes(), errBuf.Bytes(), waitErr
}

// drain copies r into buf line by line, logging each line.
// Carriage returns end a line too, so progress bars are logged per redraw.
func drain(r io.Reader, buf *bytes.Buffer, tool, stream string) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLine)
	scanner.Split(scanOutputLines)
	for scanner.Scan() {
		line := scanner.Bytes()
		buf.Write(line)
		buf.WriteByte('\n')
		slog.Debug("Toolkit output", "tool", tool, "stream", stream, "line", string(line))
	}
	if err := scanner.Err(); err != nil {
		// Keep the child from blocking on a full pipe.
		_, _ = io.Copy(io.Discard, r)
		return err
	}
	return nil
}

// scanOutputLines splits on \n, \r\n or a lone \r, and cuts lines longer than maxLine.
func scanOutputLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\r' {
			if i+1 < len(data) && data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			if i+1 == len(data) && !atEOF && len(data) < maxLine {
				// A \n may follow in the next read.
				return 0, nil, nil
			}
		}
		return i + 1, data[:i], nil
	}
	if len(data) >= maxLine {
		return maxLine, data[:maxLine], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// Executor runs commands.
type Executor struct {
	runner  CommandRunner
	binary  string
	timeout time.Duration
	env     []string

	lookupOnce sync.Once
	binaryPath string
	lookupErr  error
}

// NewExecutor creates an executor for a binary given by path or by name on PATH.
// The binary is resolved on first use, so a missing toolkit only fails the call that needs it.
func NewExecutor(binary string, timeout time.Duration, env map[string]string) *Executor {
	return &Executor{
		binary:  binary,
		timeout: timeout,
		env:     flattenEnv(env),
		runner:  ExecCommandRunner{},
	}
}

// NewExecutorWithRunner creates an executor with a custom runner. binaryPath is used as is.
func NewExecutorWithRunner(binaryPath string, timeout time.Duration, env map[string]string, runner CommandRunner) *Executor {
	e := &Executor{
		binary:     binaryPath,
		binaryPath: binaryPath,
		timeout:    timeout,
		env:        flattenEnv(env),
		runner:     runner,
	}
	e.lookupOnce.Do(func() {})
	return e
}

// BinaryPath resolves and returns the binary path.
func (e *Executor) BinaryPath() (string, error) {
	e.lookupOnce.Do(func() {
		e.binaryPath, e.lookupErr = Lookup(e.binary)
	})
	return e.binaryPath, e.lookupErr
}

// Execute runs the command and returns output.
func (e *Executor) Execute(ctx context.Context, args []string) (stdout, stderr []byte, err error) {
	bin, err := e.BinaryPath()
	if err != nil {
		return nil, nil, err
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	slog.Debug("Running toolkit", "binary", bin, "args", strings.Join(args, " "))

	stdout, stderr, err = e.runner.Run(ctx, bin, args, e.env)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return stdout, stderr, fmt.Errorf("%w after %v: %w", ErrTimeout, e.timeout, err)
	}
	return stdout, stderr, err
}

// Lookup resolves binary to an executable path.
// Names without a separator are searched on PATH.
func Lookup(binary string) (string, error) {
	if binary == "" {
		return "", fmt.Errorf("%w: empty name", ErrBinaryNotFound)
	}

	if strings.ContainsRune(binary, os.PathSeparator) {
		info, err := os.Stat(binary)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrBinaryNotFound, err)
		}
		if info.IsDir() {
			return "", fmt.Errorf("%w: %s is a directory", ErrBinaryNotFound, binary)
		}
		return binary, nil
	}

	path, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBinaryNotFound, err)
	}
	return path, nil
}

// Tail returns the last n non-empty lines of output, for error messages.
func Tail(output []byte, n int) string {
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	kept := make([]string, 0, n)
	for i := len(lines) - 1; i >= 0 && len(kept) < n; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			kept = append(kept, l)
		}
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return strings.Join(kept, "\n")
}

func flattenEnv(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(out)
	return out
}
