package memory

import (
	"sort"

	"github.com/vikasprajapat2/nexa/pkg/logger"
)

const (
	echoScore           = 20.0
	echoSimilarityFloor = 0.5
	contextWindow       = 3
	intentMatchBoost    = 2.0
	frequentBoost       = 1.5
	frequentAfter       = 5
)

type candidate struct {
	response string
	score    float64
}

type conversationContext struct {
	keywords       []string
	previousIntent Intent
}

// GenerateResponse returns a learned answer for input, or false when no
// candidate is confident enough and the caller should ask upstream.
func (s *Service) GenerateResponse(input string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keywords := ExtractKeywords(input)
	intent := ClassifyIntent(input)

	if ctx, ok := s.conversationContext(); ok && IsFollowUp(input) {
		keywords = append(keywords, ctx.keywords...)
		logger.DebugCF("memory", "Follow-up detected", map[string]interface{}{
			"context_keywords": len(ctx.keywords),
			"previous_intent":  string(ctx.previousIntent),
		})
	}

	candidates := s.patternCandidates(keywords, intent)
	candidates = append(candidates, s.echoCandidates()...)

	if len(candidates) > 0 {
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].score > candidates[j].score
		})
		if best := candidates[0]; best.score >= s.threshold {
			return best.response, true
		}
	}

	if IsSmallTalk(intent) {
		if examples := s.model.Intents[intent]; len(examples) > 0 {
			return examples[s.random.Intn(len(examples))].Response, true
		}
	}
	return "", false
}

// Score is the confidence weight of a pattern entry for an utterance of
// the given intent.
func Score(entry PatternEntry, intent Intent) float64 {
	score := float64(entry.Count)
	if entry.Intent == intent {
		score *= intentMatchBoost
	}
	if entry.Count > frequentAfter {
		score *= frequentBoost
	}
	return score
}

func (s *Service) patternCandidates(keywords []string, intent Intent) []candidate {
	var out []candidate
	for _, kw := range keywords {
		for _, entry := range s.model.Patterns[kw] {
			out = append(out, candidate{response: entry.Response, score: Score(entry, intent)})
		}
	}
	return out
}

// echoCandidates replays the follow-up reply of archived snippets whose
// opening line resembles the latest user message.
func (s *Service) echoCandidates() []candidate {
	last, ok := s.history.Last()
	if !ok {
		return nil
	}
	var out []candidate
	for _, snip := range s.model.Conversations {
		if len(snip.Exchanges) < 2 {
			continue
		}
		if CalculateSimilarity(last.User, snip.Exchanges[0].User) > echoSimilarityFloor {
			out = append(out, candidate{response: snip.Exchanges[1].Assistant, score: echoScore})
		}
	}
	return out
}

func (s *Service) conversationContext() (conversationContext, bool) {
	if s.history.Len() < 2 {
		return conversationContext{}, false
	}
	var ctx conversationContext
	seen := map[string]struct{}{}
	for _, ex := range s.history.Recent(contextWindow) {
		for _, kw := range ExtractKeywords(ex.User) {
			if _, dup := seen[kw]; dup {
				continue
			}
			seen[kw] = struct{}{}
			ctx.keywords = append(ctx.keywords, kw)
		}
		ctx.previousIntent = ClassifyIntent(ex.User)
	}
	return ctx, true
}
