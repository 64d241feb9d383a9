package memory

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vikasprajapat2/nexa/pkg/logger"
)

// DefaultConfidenceThreshold is the minimum candidate score that lets a
// learned response pre-empt the upstream providers.
const DefaultConfidenceThreshold = 10.0

// Config configures the memory service.
type Config struct {
	Store               Store
	HistorySize         int
	ConfidenceThreshold float64
	Random              RandomSource
	Now                 func() time.Time
	NewID               func() string
}

// Service owns the knowledge model and the live conversation history.
type Service struct {
	mu sync.Mutex

	store     Store
	model     *KnowledgeModel
	history   *ConversationHistory
	threshold float64
	random    RandomSource
	now       func() time.Time
	newID     func() string
}

// NewService loads the model from cfg.Store. An unreadable model is
// replaced by an empty one so startup never fails on bad state.
func NewService(ctx context.Context, cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("memory store is required")
	}
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if cfg.Random == nil {
		cfg.Random = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}

	model, err := cfg.Store.Load(ctx)
	if err != nil {
		logger.WarnCF("memory", "Knowledge model unreadable, starting empty", map[string]interface{}{
			"store": cfg.Store.Describe(),
			"error": err.Error(),
		})
		model = NewKnowledgeModel()
	}

	svc := &Service{
		store:     cfg.Store,
		model:     model,
		history:   NewConversationHistory(cfg.HistorySize),
		threshold: cfg.ConfidenceThreshold,
		random:    cfg.Random,
		now:       cfg.Now,
		newID:     cfg.NewID,
	}
	logger.InfoCF("memory", "Knowledge model loaded", map[string]interface{}{
		"store":      cfg.Store.Describe(),
		"vocabulary": len(model.Vocabulary),
		"patterns":   len(model.Patterns),
	})
	return svc, nil
}

func (s *Service) Close() error {
	return s.store.Close()
}

func (s *Service) StoreDescription() string {
	return s.store.Describe()
}

// ResetConversation clears the live history. Learned knowledge is kept.
func (s *Service) ResetConversation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Reset()
}

// Forget discards everything learned and persists the empty model.
func (s *Service) Forget(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = NewKnowledgeModel()
	s.history.Reset()
	if err := s.store.Save(ctx, s.model); err != nil {
		return fmt.Errorf("persist empty knowledge model: %w", err)
	}
	return nil
}

// History returns a copy of the live conversation, oldest first.
func (s *Service) History() []Exchange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Snapshot()
}

// Backup writes a timestamped copy of the current model into dir.
func (s *Service) Backup(ctx context.Context, dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("backup dir is required")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	data, err := encodeModel(s.model)
	stamp := s.now().UTC().Format("20060102T150405Z")
	s.mu.Unlock()
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, "nexa_model-"+stamp+".json")
	if err := writeFileAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}
