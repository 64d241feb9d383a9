package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"whats", "the", "weather"}, Tokenize("What's the   WEATHER?"))
	assert.Equal(t, []string{"open_app", "42"}, Tokenize("open_app, 42!"))
	assert.Empty(t, Tokenize("?!..."))
}

func TestExtractKeywords(t *testing.T) {
	assert.Equal(t, []string{"open", "chrome", "please"}, ExtractKeywords("Open the chrome, please"))
	assert.Equal(t, []string{"weather"}, ExtractKeywords("is it the weather?"))
	assert.Empty(t, ExtractKeywords("hi to me"))
}

func TestCalculateSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, CalculateSimilarity("open chrome", "Open Chrome!"))
	assert.Equal(t, 0.0, CalculateSimilarity("hello", "bye"))
	assert.Equal(t, 0.0, CalculateSimilarity("", "anything"))
	assert.Equal(t, 0.0, CalculateSimilarity("...", "..."))
	assert.InDelta(t, 2.0/3.0, CalculateSimilarity("open chrome now", "open chrome"), 1e-9)
	assert.Equal(t,
		CalculateSimilarity("play some music", "music please"),
		CalculateSimilarity("music please", "play some music"))
}
