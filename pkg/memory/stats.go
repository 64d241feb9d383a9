package memory

import "sort"

const exportedConversations = 5

func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, examples := range s.model.Intents {
		total += len(examples)
	}
	return Stats{
		VocabularySize:            len(s.model.Vocabulary),
		PatternsLearned:           len(s.model.Patterns),
		IntentsKnown:              len(s.model.Intents),
		TotalTrainingExamples:     total,
		ConversationsStored:       len(s.model.Conversations),
		CurrentConversationLength: s.history.Len(),
	}
}

// Export returns a human-readable view of what has been learned. For each
// keyword only the most used entry is reported; the earliest wins ties.
func (s *Service) Export() Knowledge {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := Knowledge{
		Vocabulary:           append([]string(nil), s.model.Vocabulary...),
		TopPatterns:          make(map[string]TopPattern, len(s.model.Patterns)),
		Intents:              make([]Intent, 0, len(s.model.Intents)),
		ConversationExamples: []ConversationSnippet{},
	}

	for kw, entries := range s.model.Patterns {
		if len(entries) == 0 {
			continue
		}
		top := entries[0]
		for _, e := range entries[1:] {
			if e.Count > top.Count {
				top = e
			}
		}
		k.TopPatterns[kw] = TopPattern{Response: top.Response, UsageCount: top.Count}
	}

	for intent := range s.model.Intents {
		k.Intents = append(k.Intents, intent)
	}
	sort.Slice(k.Intents, func(i, j int) bool { return k.Intents[i] < k.Intents[j] })

	convs := s.model.Conversations
	if len(convs) > exportedConversations {
		convs = convs[len(convs)-exportedConversations:]
	}
	for _, c := range convs {
		c.Exchanges = append([]Exchange(nil), c.Exchanges...)
		k.ConversationExamples = append(k.ConversationExamples, c)
	}
	return k
}
