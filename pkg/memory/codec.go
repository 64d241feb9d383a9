package memory

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

func encodeModel(m *KnowledgeModel) ([]byte, error) {
	if m == nil {
		m = NewKnowledgeModel()
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: encode model: %w", ErrStorage, err)
	}
	return data, nil
}

func decodeModel(data []byte) (*KnowledgeModel, error) {
	m := &KnowledgeModel{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrStorage, ErrUnreadableModel, err)
	}
	if m.Version > SchemaVersion {
		return nil, fmt.Errorf("%w: %w: schema version %d is newer than supported %d",
			ErrStorage, ErrUnreadableModel, m.Version, SchemaVersion)
	}
	m.normalize()
	return m, nil
}

// localTimeLayouts cover timestamps written without a zone, with or
// without fractional seconds. They are read as local time.
var localTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// looseTime decodes RFC 3339 timestamps as well as zone-less ones such as
// "2025-01-02T10:11:12.123456".
type looseTime time.Time

func (t *looseTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		*t = looseTime(ts)
		return nil
	}
	for _, layout := range localTimeLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			*t = looseTime(ts)
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}

// UnmarshalJSON also accepts the older "context" key for the intent.
func (p *PatternEntry) UnmarshalJSON(data []byte) error {
	type plain PatternEntry
	var raw struct {
		plain
		Context  Intent    `json:"context"`
		LastUsed looseTime `json:"last_used"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = PatternEntry(raw.plain)
	p.LastUsed = time.Time(raw.LastUsed)
	if p.Intent == "" {
		p.Intent = raw.Context
	}
	return nil
}

func (e *IntentExample) UnmarshalJSON(data []byte) error {
	type plain IntentExample
	var raw struct {
		plain
		Timestamp looseTime `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = IntentExample(raw.plain)
	e.Timestamp = time.Time(raw.Timestamp)
	return nil
}

func (e *Exchange) UnmarshalJSON(data []byte) error {
	type plain Exchange
	var raw struct {
		plain
		Timestamp looseTime `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Exchange(raw.plain)
	e.Timestamp = time.Time(raw.Timestamp)
	return nil
}

func (c *ConversationSnippet) UnmarshalJSON(data []byte) error {
	type plain ConversationSnippet
	var raw struct {
		plain
		Timestamp looseTime `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = ConversationSnippet(raw.plain)
	c.Timestamp = time.Time(raw.Timestamp)
	return nil
}
