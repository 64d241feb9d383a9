package commands

import (
	"context"
	"fmt"
	"strings"
)

type appAlias struct {
	keywords []string
	target   string
	label    string
}

// windowsApps are the built-in programs reachable by a spoken name.
var windowsApps = []appAlias{
	{[]string{"notepad"}, "notepad.exe", "Notepad"},
	{[]string{"calculator"}, "calc.exe", "Calculator"},
	{[]string{"cmd", "command prompt"}, "cmd", "Command Prompt"},
	{[]string{"explorer", "files"}, "explorer", "File Explorer"},
	{[]string{"settings"}, "ms-settings:", "Settings"},
}

type OpenAppHandler struct {
	host Host
}

func NewOpenAppHandler(host Host) *OpenAppHandler { return &OpenAppHandler{host: host} }

func (h *OpenAppHandler) Name() string { return "open_app" }

func (h *OpenAppHandler) Match(lower string) bool { return strings.Contains(lower, "open") }

func (h *OpenAppHandler) Execute(ctx context.Context, text string) *Result {
	app := stripAll(strings.ToLower(text), "open")
	if app == "" {
		return Reply("What should I open?")
	}

	target, reply := app, fmt.Sprintf("Attempting to open %s.", app)
	if h.host.OS() == "windows" {
		if alias, ok := lookupWindowsApp(app); ok {
			target, reply = alias.target, fmt.Sprintf("Opening %s.", alias.label)
		}
	}

	if err := h.host.LaunchApp(ctx, target); err != nil {
		return Failed(fmt.Sprintf("I tried to open %s, but encountered an error: %v", app, err), err)
	}
	return Reply(reply)
}

func lookupWindowsApp(app string) (appAlias, bool) {
	for _, alias := range windowsApps {
		for _, kw := range alias.keywords {
			if strings.Contains(app, kw) {
				return alias, true
			}
		}
	}
	return appAlias{}, false
}
