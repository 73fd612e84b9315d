package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"paperdeck/internal/domain"
)

// Renderer turns a Markdown slide file into a standalone HTML file.
type Renderer interface {
	Render(ctx context.Context, markupPath, outputPath string) error
}

// MarpCLI shells out to marp-cli, by default through npx.
type MarpCLI struct {
	Command   string
	Args      []string
	ThemePath string
	Timeout   time.Duration
}

func NewMarpCLI(command string, args []string, themePath string, timeout time.Duration) *MarpCLI {
	return &MarpCLI{Command: command, Args: args, ThemePath: themePath, Timeout: timeout}
}

func (m *MarpCLI) args(markupPath, outputPath string) []string {
	args := append([]string{}, m.Args...)
	args = append(args, markupPath)
	if m.ThemePath != "" {
		args = append(args, "--theme", m.ThemePath)
	}
	return append(args, "--allow-local-files", "--html", "-o", outputPath)
}

func (m *MarpCLI) Render(ctx context.Context, markupPath, outputPath string) error {
	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, m.Command, m.args(markupPath, outputPath)...)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return domain.RenderError(fmt.Sprintf("marp timed out after %s", m.Timeout), ctx.Err())
		}
		msg := strings.TrimSpace(output.String())
		if msg == "" {
			msg = "marp failed"
		}
		return domain.RenderError(msg, err)
	}
	return nil
}
