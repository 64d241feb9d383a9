package commands

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	goos     string
	urls     []string
	apps     []string
	typed    []string
	launchErr error
}

func (h *fakeHost) OS() string { return h.goos }

func (h *fakeHost) OpenURL(_ context.Context, u string) error {
	h.urls = append(h.urls, u)
	return nil
}

func (h *fakeHost) LaunchApp(_ context.Context, name string) error {
	h.apps = append(h.apps, name)
	return h.launchErr
}

func (h *fakeHost) TypeText(_ context.Context, text string) error {
	h.typed = append(h.typed, text)
	return nil
}

func newTestDispatcher(host *fakeHost, roots ...string) *Dispatcher {
	return NewDefaultDispatcher(host, Options{
		SearchRoots: roots,
		Now:         func() time.Time { return time.Date(2026, 5, 1, 15, 4, 0, 0, time.UTC) },
	})
}

func dispatch(t *testing.T, d *Dispatcher, text string) string {
	t.Helper()
	reply, ok := d.Dispatch(context.Background(), text)
	require.True(t, ok, "expected %q to be handled", text)
	return reply
}

func TestDispatcher_NotACommand(t *testing.T) {
	d := newTestDispatcher(&fakeHost{goos: "linux"})
	_, ok := d.Dispatch(context.Background(), "how are you")
	assert.False(t, ok)
	assert.Equal(t, []string{"type", "web_search", "media", "open_app", "find_file", "time"}, d.Names())
}

func TestTypeHandler(t *testing.T) {
	host := &fakeHost{goos: "linux"}
	d := newTestDispatcher(host)

	assert.Equal(t, "I have typed: Hello World", dispatch(t, d, "Type Hello World"))
	assert.Equal(t, "I have typed: a note", dispatch(t, d, "please write a note"))
	assert.Equal(t, "What should I type?", dispatch(t, d, "type"))
	assert.Equal(t, []string{"Hello World", "a note"}, host.typed)
}

func TestTypeHandler_CancelledDuringDelay(t *testing.T) {
	host := &fakeHost{goos: "linux"}
	h := NewTypeHandler(host, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := h.Execute(ctx, "type something")
	require.Error(t, res.Err)
	assert.Empty(t, host.typed)
}

func TestWebSearchHandler(t *testing.T) {
	host := &fakeHost{goos: "linux"}
	d := newTestDispatcher(host)

	assert.Equal(t, "Searching Google for golang channels...", dispatch(t, d, "Search for Golang channels"))
	assert.Equal(t, "What should I search for?", dispatch(t, d, "google"))
	require.Len(t, host.urls, 1)
	assert.Equal(t, "https://www.google.com/search?q=golang+channels", host.urls[0])
}

func TestMediaHandler(t *testing.T) {
	host := &fakeHost{goos: "linux"}
	d := newTestDispatcher(host)

	assert.Equal(t, "Searching YouTube for lofi beats...", dispatch(t, d, "play lofi beats on YouTube"))
	assert.Equal(t, "What should I play?", dispatch(t, d, "youtube"))
	assert.Equal(t, []string{"https://www.youtube.com/results?search_query=lofi+beats"}, host.urls)
}

func TestOpenAppHandler_WindowsAliases(t *testing.T) {
	host := &fakeHost{goos: "windows"}
	d := newTestDispatcher(host)

	assert.Equal(t, "Opening Notepad.", dispatch(t, d, "open notepad"))
	assert.Equal(t, "Opening Calculator.", dispatch(t, d, "Open calculator"))
	assert.Equal(t, "Opening Command Prompt.", dispatch(t, d, "open command prompt"))
	assert.Equal(t, "Opening File Explorer.", dispatch(t, d, "open files"))
	assert.Equal(t, "Opening Settings.", dispatch(t, d, "open settings"))
	assert.Equal(t, "Attempting to open spotify.", dispatch(t, d, "open spotify"))
	assert.Equal(t, []string{"notepad.exe", "calc.exe", "cmd", "explorer", "ms-settings:", "spotify"}, host.apps)
}

func TestOpenAppHandler_OtherPlatforms(t *testing.T) {
	host := &fakeHost{goos: "darwin"}
	d := newTestDispatcher(host)

	assert.Equal(t, "Attempting to open notepad.", dispatch(t, d, "open notepad"))
	assert.Equal(t, []string{"notepad"}, host.apps)

	host.launchErr = errors.New("not installed")
	reply := dispatch(t, d, "open gimp")
	assert.Equal(t, "I tried to open gimp, but encountered an error: not installed", reply)
}

func TestFindFileHandler(t *testing.T) {
	root := t.TempDir()
	desktop := filepath.Join(root, "Desktop")
	documents := filepath.Join(root, "Documents")
	require.NoError(t, os.MkdirAll(filepath.Join(documents, "reports", "2026"), 0o755))
	require.NoError(t, os.MkdirAll(desktop, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(documents, "reports", "2026", "Budget.xlsx"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(desktop, "notes.txt"), nil, 0o644))

	d := newTestDispatcher(&fakeHost{goos: "linux"}, desktop, documents, filepath.Join(root, "missing"))

	reply := dispatch(t, d, "find file budget")
	assert.True(t, strings.HasPrefix(reply, "I found 1 file(s) matching budget in your Desktop, Documents and missing: "), reply)
	assert.Contains(t, reply, "Budget.xlsx")

	reply = dispatch(t, d, "search file invoice")
	assert.Equal(t, "I couldn't find any file matching invoice in your Desktop, Documents and missing.", reply)

	assert.Equal(t, "What file should I find?", dispatch(t, d, "find file"))
}

func TestFindFileHandler_StopsAtResultLimit(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.log", "b.log", "c.log", "d.log", "e.log", "f.log", "g.log"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), nil, 0o644))
	}
	h := NewFindFileHandler([]string{root})

	matches, err := h.search(context.Background(), ".log")
	require.NoError(t, err)
	assert.Len(t, matches, defaultSearchResults)
}

func TestTimeHandler(t *testing.T) {
	d := newTestDispatcher(&fakeHost{goos: "linux"})
	assert.Equal(t, "The current time is 03:04 PM.", dispatch(t, d, "what time is it"))
}

func TestDispatcher_PriorityOrder(t *testing.T) {
	host := &fakeHost{goos: "linux"}
	d := newTestDispatcher(host)

	// "google" outranks "open" and "time".
	assert.Equal(t, "Searching Google for open source time tracking...", dispatch(t, d, "google open source time tracking"))
	assert.Empty(t, host.apps)
}

func TestExecHost_Commands(t *testing.T) {
	type call struct {
		name string
		args []string
	}
	var calls []call
	record := func(name string, args ...string) error {
		calls = append(calls, call{name, args})
		return nil
	}
	host := &ExecHost{
		goos:  "windows",
		start: record,
		run: func(_ context.Context, name string, args ...string) error {
			return record(name, args...)
		},
	}

	require.NoError(t, host.OpenURL(context.Background(), "https://example.com"))
	require.NoError(t, host.LaunchApp(context.Background(), "notepad.exe"))
	require.NoError(t, host.TypeText(context.Background(), "50% (off)"))

	require.Len(t, calls, 3)
	assert.Equal(t, call{"rundll32", []string{"url.dll,FileProtocolHandler", "https://example.com"}}, calls[0])
	assert.Equal(t, call{"cmd", []string{"/c", "start", "", "notepad.exe"}}, calls[1])
	assert.Contains(t, calls[2].args[len(calls[2].args)-1], "SendWait('50{%} {(}off{)}')")

	host.goos = "linux"
	calls = nil
	require.NoError(t, host.LaunchApp(context.Background(), "gedit"))
	require.NoError(t, host.TypeText(context.Background(), "hi"))
	assert.Equal(t, call{"gedit", nil}, calls[0])
	assert.Equal(t, call{"xdotool", []string{"type", "--delay", "50", "--", "hi"}}, calls[1])

	assert.Error(t, host.LaunchApp(context.Background(), "  "))
}
