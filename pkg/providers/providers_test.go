package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vikasprajapat2/nexa/pkg/config"
)

func TestHuggingFace_FallsThroughFailingModels(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	var seenAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		seenAuth = r.Header.Get("Authorization")
		mu.Unlock()

		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["inputs"] != "tell me a story" {
			t.Errorf("unexpected inputs %q", req["inputs"])
		}

		switch r.URL.Path {
		case "/models/first/model":
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"Model first/model is currently loading"}`))
		case "/models/second/model":
			_, _ = w.Write([]byte(`{"error":"bad input"}`))
		default:
			_, _ = w.Write([]byte(`[{"generated_text":"Once upon a time."}]`))
		}
	}))
	defer server.Close()

	cfg := config.DefaultConfig()
	cfg.Providers.HuggingFace.APIBase = server.URL
	cfg.Providers.HuggingFace.APIKey = "hf_test"
	cfg.Providers.HuggingFace.Models = []string{"first/model", "second/model", "third/model"}

	provider, err := CreateProvider(cfg, ProviderHuggingFace)
	require.NoError(t, err)

	resp, err := provider.Chat(context.Background(), []Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "tell me a story"},
	}, ReplyOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Once upon a time.", resp.Content)
	assert.Equal(t, "third/model", resp.Model)
	assert.Equal(t, []string{"/models/first/model", "/models/second/model", "/models/third/model"}, paths)
	assert.Equal(t, "Bearer hf_test", seenAuth)
}

func TestHuggingFace_AllModelsFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cfg := config.DefaultConfig()
	cfg.Providers.HuggingFace.APIBase = server.URL
	cfg.Providers.HuggingFace.Models = []string{"a/b"}

	provider, err := CreateProvider(cfg, ProviderHuggingFace)
	require.NoError(t, err)

	_, err = provider.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, ReplyOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=404")
}

func TestParseHuggingFaceResponse(t *testing.T) {
	got, err := parseHuggingFaceResponse([]byte(`{"generated_text":"single object"}`))
	require.NoError(t, err)
	assert.Equal(t, "single object", got)

	_, err = parseHuggingFaceResponse([]byte(`[]`))
	assert.Error(t, err)

	_, err = parseHuggingFaceResponse([]byte(`[{"generated_text":"   "}]`))
	assert.Error(t, err)

	_, err = parseHuggingFaceResponse([]byte(`{"error":"overloaded"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded")
}

func TestCreateProvider_OpenRouter(t *testing.T) {
	var seenAuth, seenPath, seenTitle string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth = r.Header.Get("Authorization")
		seenPath = r.URL.Path
		seenTitle = r.Header.Get("X-Title")
		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if got := req["model"]; got != defaultOpenRouterModel {
			t.Errorf("expected default model %q, got %v", defaultOpenRouterModel, got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	cfg := config.DefaultConfig()
	cfg.Providers.OpenRouter.APIKey = "or-key"
	cfg.Providers.OpenRouter.APIBase = server.URL

	provider, err := CreateProvider(cfg, ProviderOpenRouter)
	require.NoError(t, err)
	resp, err := provider.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, ReplyOptions{})
	require.NoError(t, err)

	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, "Bearer or-key", seenAuth)
	assert.Equal(t, "/chat/completions", seenPath)
	assert.Equal(t, "Nexa", seenTitle)
}

func TestCreateProvider_OpenAI_ModelOverrideAndReplyOptions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if got := req["model"]; got != "gpt-4o" {
			t.Errorf("expected model override gpt-4o, got %v", got)
		}
		if got := req["max_tokens"]; got != float64(128) {
			t.Errorf("expected max_tokens 128, got %v", got)
		}
		if got := req["temperature"]; got != 0.3 {
			t.Errorf("expected temperature 0.3, got %v", got)
		}
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"content": [{"type":"text","text":"Hello "},{"type":"text","text":"there"}]}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
		}`))
	}))
	defer server.Close()

	cfg := config.DefaultConfig()
	cfg.Providers.OpenAI.APIKey = "sk-openai"
	cfg.Providers.OpenAI.APIBase = server.URL

	provider, err := CreateProvider(cfg, ProviderOpenAI)
	require.NoError(t, err)
	resp, err := provider.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}},
		ReplyOptions{Model: "gpt-4o", MaxTokens: 128, Temperature: 0.3})
	require.NoError(t, err)

	assert.Equal(t, "Hello there", resp.Content)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
}

func TestChatCompletions_ErrorStatusCarriesAPIMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided"}}`))
	}))
	defer server.Close()

	cfg := config.DefaultConfig()
	cfg.Providers.OpenAI.APIKey = "sk-bad"
	cfg.Providers.OpenAI.APIBase = server.URL

	provider, err := CreateProvider(cfg, ProviderOpenAI)
	require.NoError(t, err)
	_, err = provider.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, ReplyOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=401")
	assert.Contains(t, err.Error(), "Incorrect API key provided")
}

func TestCreateProvider_UnsupportedProvider(t *testing.T) {
	_, err := CreateProvider(config.DefaultConfig(), "does-not-exist")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "huggingface")
}

func TestValidateProviderConfig_MissingCredentials(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Error(t, ValidateProviderConfig(cfg, ProviderOpenAI))
	assert.Error(t, ValidateProviderConfig(cfg, ProviderOpenRouter))
	assert.NoError(t, ValidateProviderConfig(cfg, ProviderHuggingFace))

	cfg.Providers.HuggingFace.Models = []string{" "}
	assert.Error(t, ValidateProviderConfig(cfg, ProviderHuggingFace))
}

func TestProviderCredentialStatus(t *testing.T) {
	cfg := config.DefaultConfig()

	status, err := ProviderCredentialStatus(cfg, ProviderHuggingFace)
	require.NoError(t, err)
	assert.Equal(t, CredentialStatus{Configured: true, Mode: authModeAnonymous}, status)

	cfg.Providers.HuggingFace.APIKey = "hf_x"
	status, _ = ProviderCredentialStatus(cfg, ProviderHuggingFace)
	assert.Equal(t, authModeAPIKey, status.Mode)

	status, err = ProviderCredentialStatus(cfg, ProviderOpenRouter)
	require.NoError(t, err)
	assert.False(t, status.Configured)

	_, err = ProviderCredentialStatus(cfg, "gemini")
	assert.Error(t, err)
}

func TestRegister_RejectsInvalidFactories(t *testing.T) {
	build := func(*config.Config) (LLMProvider, error) { return &fakeProvider{name: "x"}, nil }

	assert.Error(t, Register(" ", Factory{Build: build}))
	assert.Error(t, Register("custom", Factory{}))
	assert.Error(t, Register("OpenAI", Factory{Build: build}))
	assert.Equal(t, []string{ProviderHuggingFace, ProviderOpenAI, ProviderOpenRouter}, SupportedProviders())
}

func TestSupportedProviders(t *testing.T) {
	assert.Equal(t, []string{ProviderHuggingFace, ProviderOpenAI, ProviderOpenRouter}, SupportedProviders())
}

type fakeProvider struct {
	name  string
	reply string
	err   error
	calls int
	seen  []Message
	opts  ReplyOptions
}

func (f *fakeProvider) Name() string            { return f.name }
func (f *fakeProvider) GetDefaultModel() string { return "fake" }
func (f *fakeProvider) Chat(_ context.Context, messages []Message, opts ReplyOptions) (*LLMResponse, error) {
	f.calls++
	f.seen = messages
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return &LLMResponse{Content: f.reply}, nil
}

func TestChain_FirstUsableReplyWins(t *testing.T) {
	down := &fakeProvider{name: "down", err: errors.New("timeout")}
	blank := &fakeProvider{name: "blank", reply: "  "}
	good := &fakeProvider{name: "good", reply: "User: hi Assistant: Hello!"}
	never := &fakeProvider{name: "never", reply: "unused"}

	chain := NewChain("be nice", ReplyOptions{MaxTokens: 60}, down, blank, good, never)
	reply, name, err := chain.Generate(context.Background(), "hi")
	require.NoError(t, err)

	assert.Equal(t, "Hello!", reply)
	assert.Equal(t, "good", name)
	assert.Zero(t, never.calls)
	require.Len(t, good.seen, 2)
	assert.Equal(t, Message{Role: "system", Content: "be nice"}, good.seen[0])
	assert.Equal(t, ReplyOptions{MaxTokens: 60}, good.opts)
	assert.Equal(t, []string{"down", "blank", "good", "never"}, chain.Names())
}

func TestChain_AllFail(t *testing.T) {
	chain := NewChain("", ReplyOptions{}, &fakeProvider{name: "a", err: errors.New("boom")})
	_, _, err := chain.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAllProvidersFailed))
	assert.Contains(t, err.Error(), "boom")

	_, _, err = NewChain("", ReplyOptions{}).Generate(context.Background(), "hi")
	assert.True(t, errors.Is(err, ErrAllProvidersFailed))
}

func TestNewChainFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Providers.Order = []string{"OpenRouter", "huggingface", "openai"}
	cfg.Providers.OpenAI.APIKey = "sk-x"

	chain, err := NewChainFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{ProviderHuggingFace, ProviderOpenAI}, chain.Names())

	cfg.Providers.Order = []string{"gemini"}
	_, err = NewChainFromConfig(cfg)
	assert.Error(t, err)
}

func TestNewChainFromConfig_SendsReplyLimits(t *testing.T) {
	var got chatCompletionsRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Short answer."},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	cfg := config.DefaultConfig()
	cfg.Providers.Order = []string{ProviderOpenAI}
	cfg.Providers.OpenAI.APIKey = "sk-x"
	cfg.Providers.OpenAI.APIBase = server.URL
	cfg.Assistant.MaxReplyTokens = 80
	cfg.Assistant.Temperature = 0.5

	chain, err := NewChainFromConfig(cfg)
	require.NoError(t, err)
	reply, name, err := chain.Generate(context.Background(), "tell me about go")
	require.NoError(t, err)

	assert.Equal(t, "Short answer.", reply)
	assert.Equal(t, ProviderOpenAI, name)
	assert.Equal(t, 80, got.MaxTokens)
	assert.InDelta(t, 0.5, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
}

func TestHuggingFace_SendsGenerationParameters(t *testing.T) {
	var got huggingFaceRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"generated_text":"Hi!"}`))
	}))
	defer server.Close()

	cfg := config.DefaultConfig()
	cfg.Providers.HuggingFace.APIBase = server.URL
	cfg.Providers.HuggingFace.Models = []string{"a/b"}

	provider, err := CreateProvider(cfg, ProviderHuggingFace)
	require.NoError(t, err)
	_, err = provider.Chat(context.Background(), []Message{{Role: "user", Content: "hello"}},
		ReplyOptions{MaxTokens: 40, Temperature: 0.7})
	require.NoError(t, err)

	assert.Equal(t, "hello", got.Inputs)
	require.NotNil(t, got.Parameters)
	assert.Equal(t, 40, got.Parameters.MaxNewTokens)
}

func TestExtractAPIError(t *testing.T) {
	cases := map[string]string{
		`{"error":"Model is loading"}`:           "Model is loading",
		`{"error":{"message":"quota exceeded"}}`: "quota exceeded",
		`{"message":"not found"}`:                "not found",
		``:                                       "empty response body",
		`<html>bad gateway</html>`:               "<html>bad gateway</html>",
	}
	for body, want := range cases {
		assert.Equal(t, want, extractAPIError([]byte(body)), body)
	}
}

func TestCleanReply(t *testing.T) {
	cases := map[string]string{
		"User: hi\nAssistant: Hello there!":               "Hello there!",
		"Assistant: one Assistant: two":                   "two",
		"User: what is go? the language":                  "what is go? the language",
		"  plain answer  ":                                "plain answer",
		"User: a Assistant: b User: c Assistant:  final ": "final",
	}
	for in, want := range cases {
		assert.Equal(t, want, CleanReply(in), in)
	}
}
