package output

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

var ErrClipboardUnavailable = errors.New("no clipboard command available")

type clipboardCommand struct {
	name string
	args []string
	// detach leaves the process running after stdin is closed; xclip keeps
	// serving the selection until another client takes it.
	detach bool
}

func CopyToClipboard(ctx context.Context, value string) error {
	cmd, err := detectClipboard(runtime.GOOS, exec.LookPath)
	if err != nil {
		return err
	}
	if cmd.detach {
		return copyDetached(cmd, value)
	}

	copyCtx, cancel := context.WithTimeout(ctx, 4*time.Second)
	defer cancel()

	run := exec.CommandContext(copyCtx, cmd.name, cmd.args...)
	run.Stdin = strings.NewReader(value)
	run.Stdout = io.Discard
	run.Stderr = io.Discard

	if err := run.Run(); err != nil {
		if errors.Is(copyCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("copy to clipboard timed out: %w", copyCtx.Err())
		}
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}

func detectClipboard(goos string, lookPath func(string) (string, error)) (clipboardCommand, error) {
	candidates := []clipboardCommand{
		{name: "wl-copy"},
		{name: "xclip", args: []string{"-selection", "clipboard", "-in", "-silent"}, detach: true},
	}
	if goos == "darwin" {
		candidates = []clipboardCommand{{name: "pbcopy"}}
	}

	for _, c := range candidates {
		if _, err := lookPath(c.name); err == nil {
			return c, nil
		}
	}
	return clipboardCommand{}, ErrClipboardUnavailable
}

func copyDetached(c clipboardCommand, value string) error {
	cmd := exec.Command(c.name, c.args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open clipboard stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start clipboard command: %w", err)
	}

	_, writeErr := io.WriteString(stdin, value)
	closeErr := stdin.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("write clipboard data: %w", err)
	}

	return cmd.Process.Release()
}
