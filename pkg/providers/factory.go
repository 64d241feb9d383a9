package providers

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vikasprajapat2/nexa/pkg/config"
)

const (
	ProviderHuggingFace = "huggingface"
	ProviderOpenRouter  = "openrouter"
	ProviderOpenAI      = "openai"
)

// Factory builds one kind of upstream provider from the config.
type Factory struct {
	Build func(cfg *config.Config) (LLMProvider, error)
	// Validate reports missing settings before Build is attempted.
	Validate func(cfg *config.Config) error
	// Credentials describes how the provider would authenticate.
	Credentials func(cfg *config.Config) CredentialStatus
}

// CredentialStatus is what `nexa status` reports per provider.
type CredentialStatus struct {
	Configured bool
	Mode       string
}

var registry = struct {
	sync.RWMutex
	factories map[string]Factory
}{factories: map[string]Factory{}}

// Register adds a provider factory under name. Names are case-insensitive
// and may only be registered once.
func Register(name string, f Factory) error {
	name = NormalizeProviderName(name)
	if name == "" {
		return errors.New("providers: factory name is required")
	}
	if f.Build == nil {
		return fmt.Errorf("providers: %s: build func is required", name)
	}

	registry.Lock()
	defer registry.Unlock()
	if _, dup := registry.factories[name]; dup {
		return fmt.Errorf("providers: %s is already registered", name)
	}
	registry.factories[name] = f
	return nil
}

func mustRegister(name string, f Factory) {
	if err := Register(name, f); err != nil {
		panic(err)
	}
}

func SupportedProviders() []string {
	registry.RLock()
	defer registry.RUnlock()
	names := make([]string, 0, len(registry.factories))
	for name := range registry.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func NormalizeProviderName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func ValidateProviderConfig(cfg *config.Config, name string) error {
	f, err := lookupFactory(name)
	if err != nil {
		return err
	}
	if f.Validate == nil {
		return nil
	}
	return f.Validate(cfg)
}

func ProviderCredentialStatus(cfg *config.Config, name string) (CredentialStatus, error) {
	f, err := lookupFactory(name)
	if err != nil {
		return CredentialStatus{}, err
	}
	if f.Credentials != nil {
		return f.Credentials(cfg), nil
	}
	return CredentialStatus{Configured: f.Validate == nil || f.Validate(cfg) == nil}, nil
}

func CreateProvider(cfg *config.Config, name string) (LLMProvider, error) {
	f, err := lookupFactory(name)
	if err != nil {
		return nil, err
	}
	return f.Build(cfg)
}

func lookupFactory(name string) (Factory, error) {
	name = NormalizeProviderName(name)
	registry.RLock()
	f, ok := registry.factories[name]
	registry.RUnlock()
	if !ok {
		return Factory{}, fmt.Errorf("unsupported provider %q: supported providers are %s",
			name, strings.Join(SupportedProviders(), ", "))
	}
	return f, nil
}
