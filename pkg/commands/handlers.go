package commands

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const DefaultTypeDelay = 2 * time.Second

// afterKeyword returns the original-case text following the first
// case-insensitive occurrence of kw.
func afterKeyword(text, kw string) string {
	lower := strings.ToLower(text)
	i := strings.Index(lower, kw)
	if i < 0 {
		return ""
	}
	if len(lower) != len(text) {
		return strings.TrimSpace(lower[i+len(kw):])
	}
	return strings.TrimSpace(text[i+len(kw):])
}

func stripAll(lower string, phrases ...string) string {
	for _, p := range phrases {
		lower = strings.ReplaceAll(lower, p, "")
	}
	return strings.Join(strings.Fields(lower), " ")
}

// TypeHandler types the dictated text into the focused window after a
// short delay so the user can place the cursor.
type TypeHandler struct {
	host  Host
	delay time.Duration
}

func NewTypeHandler(host Host, delay time.Duration) *TypeHandler {
	if delay < 0 {
		delay = 0
	}
	return &TypeHandler{host: host, delay: delay}
}

func (h *TypeHandler) Name() string { return "type" }

func (h *TypeHandler) Match(lower string) bool {
	return strings.Contains(lower, "type") || strings.Contains(lower, "write")
}

func (h *TypeHandler) Execute(ctx context.Context, text string) *Result {
	kw := "write"
	if strings.Contains(strings.ToLower(text), "type") {
		kw = "type"
	}
	content := afterKeyword(text, kw)
	if content == "" {
		return Reply("What should I type?")
	}

	if h.delay > 0 {
		timer := time.NewTimer(h.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Failed("Typing was cancelled.", ctx.Err())
		case <-timer.C:
		}
	}
	if err := h.host.TypeText(ctx, content); err != nil {
		return Failed(fmt.Sprintf("I tried to type, but encountered an error: %v", err), err)
	}
	return Reply("I have typed: " + content)
}

type WebSearchHandler struct {
	host Host
}

func NewWebSearchHandler(host Host) *WebSearchHandler { return &WebSearchHandler{host: host} }

func (h *WebSearchHandler) Name() string { return "web_search" }

func (h *WebSearchHandler) Match(lower string) bool {
	return strings.Contains(lower, "search for") || strings.Contains(lower, "google")
}

func (h *WebSearchHandler) Execute(ctx context.Context, text string) *Result {
	query := stripAll(strings.ToLower(text), "search for", "google")
	if query == "" {
		return Reply("What should I search for?")
	}
	target := "https://www.google.com/search?q=" + url.QueryEscape(query)
	if err := h.host.OpenURL(ctx, target); err != nil {
		return Failed(fmt.Sprintf("I tried to search for %s, but encountered an error: %v", query, err), err)
	}
	return Reply(fmt.Sprintf("Searching Google for %s...", query))
}

type MediaHandler struct {
	host Host
}

func NewMediaHandler(host Host) *MediaHandler { return &MediaHandler{host: host} }

func (h *MediaHandler) Name() string { return "media" }

func (h *MediaHandler) Match(lower string) bool {
	return strings.Contains(lower, "play") || strings.Contains(lower, "youtube")
}

func (h *MediaHandler) Execute(ctx context.Context, text string) *Result {
	query := stripAll(strings.ToLower(text), "play", "on youtube", "youtube")
	if query == "" {
		return Reply("What should I play?")
	}
	target := "https://www.youtube.com/results?search_query=" + url.QueryEscape(query)
	if err := h.host.OpenURL(ctx, target); err != nil {
		return Failed(fmt.Sprintf("I tried to play %s, but encountered an error: %v", query, err), err)
	}
	return Reply(fmt.Sprintf("Searching YouTube for %s...", query))
}

// TimeHandler answers with the local wall-clock time.
type TimeHandler struct {
	now func() time.Time
}

func NewTimeHandler(now func() time.Time) *TimeHandler {
	if now == nil {
		now = time.Now
	}
	return &TimeHandler{now: now}
}

func (h *TimeHandler) Name() string { return "time" }

func (h *TimeHandler) Match(lower string) bool { return strings.Contains(lower, "time") }

func (h *TimeHandler) Execute(context.Context, string) *Result {
	return Reply(fmt.Sprintf("The current time is %s.", h.now().Format("03:04 PM")))
}
