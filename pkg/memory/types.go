package memory

import "time"

// SchemaVersion is written into every persisted knowledge model.
const SchemaVersion = 1

// Intent is a coarse utterance classification label.
type Intent string

const (
	IntentGreeting           Intent = "greeting"
	IntentFarewell           Intent = "farewell"
	IntentGratitude          Intent = "gratitude"
	IntentQuestion           Intent = "question"
	IntentCommand            Intent = "command"
	IntentInformationRequest Intent = "information_request"
	IntentStatement          Intent = "statement"
)

// PatternEntry is one learned response under a keyword.
type PatternEntry struct {
	Response string    `json:"response"`
	Intent   Intent    `json:"intent"`
	Count    int       `json:"count"`
	LastUsed time.Time `json:"last_used"`
}

// IntentExample is one training pair recorded under its intent.
type IntentExample struct {
	Input     string    `json:"input"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// Exchange is a single user/assistant turn.
type Exchange struct {
	ID        string    `json:"id" yaml:"id"`
	User      string    `json:"user" yaml:"user"`
	Assistant string    `json:"assistant" yaml:"assistant"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// ConversationSnippet archives two consecutive exchanges.
type ConversationSnippet struct {
	ID        string     `json:"id" yaml:"id"`
	Exchanges []Exchange `json:"exchanges" yaml:"exchanges"`
	Timestamp time.Time  `json:"timestamp" yaml:"timestamp"`
}

// KnowledgeModel is the persisted unit. It is always written wholesale.
type KnowledgeModel struct {
	Version       int                        `json:"version"`
	Vocabulary    []string                   `json:"vocabulary"`
	Patterns      map[string][]PatternEntry  `json:"patterns"`
	Intents       map[Intent][]IntentExample `json:"intents"`
	Conversations []ConversationSnippet      `json:"conversations"`

	vocabIndex map[string]struct{}
}

// NewKnowledgeModel returns an empty model with all containers allocated.
func NewKnowledgeModel() *KnowledgeModel {
	m := &KnowledgeModel{}
	m.normalize()
	return m
}

// normalize fills containers a decoded document may have omitted and
// rebuilds the vocabulary index.
func (m *KnowledgeModel) normalize() {
	if m.Version == 0 {
		m.Version = SchemaVersion
	}
	if m.Vocabulary == nil {
		m.Vocabulary = []string{}
	}
	if m.Patterns == nil {
		m.Patterns = map[string][]PatternEntry{}
	}
	if m.Intents == nil {
		m.Intents = map[Intent][]IntentExample{}
	}
	if m.Conversations == nil {
		m.Conversations = []ConversationSnippet{}
	}
	m.vocabIndex = make(map[string]struct{}, len(m.Vocabulary))
	for _, w := range m.Vocabulary {
		m.vocabIndex[w] = struct{}{}
	}
}

func (m *KnowledgeModel) knows(word string) bool {
	_, ok := m.vocabIndex[word]
	return ok
}

func (m *KnowledgeModel) addWord(word string) bool {
	if m.knows(word) {
		return false
	}
	m.vocabIndex[word] = struct{}{}
	m.Vocabulary = append(m.Vocabulary, word)
	return true
}

// Stats summarises the knowledge model and the live conversation.
type Stats struct {
	VocabularySize            int `json:"vocabulary_size" yaml:"vocabulary_size"`
	PatternsLearned           int `json:"patterns_learned" yaml:"patterns_learned"`
	IntentsKnown              int `json:"intents_known" yaml:"intents_known"`
	TotalTrainingExamples     int `json:"total_training_examples" yaml:"total_training_examples"`
	ConversationsStored       int `json:"conversations_stored" yaml:"conversations_stored"`
	CurrentConversationLength int `json:"current_conversation_length" yaml:"current_conversation_length"`
}

// TopPattern is the most reinforced response for a keyword.
type TopPattern struct {
	Response   string `json:"response" yaml:"response"`
	UsageCount int    `json:"usage_count" yaml:"usage_count"`
}

// Knowledge is the human-readable export of a model.
type Knowledge struct {
	Vocabulary           []string              `json:"vocabulary" yaml:"vocabulary"`
	TopPatterns          map[string]TopPattern `json:"top_patterns" yaml:"top_patterns"`
	Intents              []Intent              `json:"intents" yaml:"intents"`
	ConversationExamples []ConversationSnippet `json:"conversation_examples" yaml:"conversation_examples"`
}
