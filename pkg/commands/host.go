package commands

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Host performs side effects on the local desktop.
type Host interface {
	OpenURL(ctx context.Context, url string) error
	LaunchApp(ctx context.Context, name string) error
	TypeText(ctx context.Context, text string) error
	OS() string
}

// ExecHost drives the desktop through the platform's launcher binaries.
type ExecHost struct {
	goos  string
	start func(name string, args ...string) error
	run   func(ctx context.Context, name string, args ...string) error
}

func NewExecHost() *ExecHost {
	return &ExecHost{
		goos:  runtime.GOOS,
		start: startDetached,
		run:   runAndWait,
	}
}

func (h *ExecHost) OS() string { return h.goos }

func (h *ExecHost) OpenURL(_ context.Context, url string) error {
	switch h.goos {
	case "windows":
		return h.start("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		return h.start("open", url)
	default:
		return h.start("xdg-open", url)
	}
}

func (h *ExecHost) LaunchApp(_ context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("application name is empty")
	}
	switch h.goos {
	case "windows":
		return h.start("cmd", "/c", "start", "", name)
	case "darwin":
		return h.start("open", "-a", name)
	default:
		return h.start(name)
	}
}

func (h *ExecHost) TypeText(ctx context.Context, text string) error {
	switch h.goos {
	case "windows":
		script := "Add-Type -AssemblyName System.Windows.Forms; [System.Windows.Forms.SendKeys]::SendWait(" + powershellQuote(sendKeysEscape(text)) + ")"
		return h.run(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command", script)
	case "darwin":
		script := `tell application "System Events" to keystroke ` + appleScriptQuote(text)
		return h.run(ctx, "osascript", "-e", script)
	default:
		return h.run(ctx, "xdotool", "type", "--delay", "50", "--", text)
	}
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func runAndWait(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func powershellQuote(raw string) string {
	return "'" + strings.ReplaceAll(raw, "'", "''") + "'"
}

// sendKeysEscape wraps SendKeys metacharacters in braces so they are typed
// literally.
func sendKeysEscape(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch r {
		case '+', '^', '%', '~', '(', ')', '{', '}', '[', ']':
			b.WriteRune('{')
			b.WriteRune(r)
			b.WriteRune('}')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func appleScriptQuote(raw string) string {
	escaped := strings.ReplaceAll(raw, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}
