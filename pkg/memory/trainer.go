package memory

import (
	"context"
	"fmt"
)

// Train records a finished exchange and persists the model. A save
// failure is returned wrapped in ErrStorage after the in-memory model has
// already been updated.
func (s *Service) Train(ctx context.Context, input, response string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.history.Append(Exchange{
		ID:        s.newID(),
		User:      input,
		Assistant: response,
		Timestamp: now,
	})

	keywords := ExtractKeywords(input)
	intent := ClassifyIntent(input)
	m := s.model

	for _, kw := range keywords {
		m.addWord(kw)
	}

	for _, kw := range keywords {
		entries := m.Patterns[kw]
		found := false
		for i := range entries {
			if entries[i].Response == response {
				entries[i].Count++
				entries[i].LastUsed = now
				found = true
				break
			}
		}
		if !found {
			entries = append(entries, PatternEntry{
				Response: response,
				Intent:   intent,
				Count:    1,
				LastUsed: now,
			})
		}
		m.Patterns[kw] = entries
	}

	m.Intents[intent] = append(m.Intents[intent], IntentExample{
		Input:     input,
		Response:  response,
		Timestamp: now,
	})

	if s.history.Len() >= 2 {
		m.Conversations = append(m.Conversations, ConversationSnippet{
			ID:        s.newID(),
			Exchanges: s.history.Recent(2),
			Timestamp: now,
		})
	}

	if err := s.store.Save(ctx, m); err != nil {
		return fmt.Errorf("persist knowledge model: %w", err)
	}
	return nil
}
