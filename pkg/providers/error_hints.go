package providers

import "strings"

func augmentProviderError(providerName, message string) string {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return msg
	}

	lower := strings.ToLower(msg)
	switch NormalizeProviderName(providerName) {
	case ProviderHuggingFace:
		if strings.Contains(lower, "currently loading") {
			return msg + " Hint: the model is cold-starting on Hugging Face; the next model in the list is tried meanwhile."
		}
		if strings.Contains(lower, "invalid credentials") || strings.Contains(lower, "authorization header is correct") {
			return msg + " Hint: set HF_API_KEY (or providers.huggingface.api_key) to a valid access token."
		}
	case ProviderOpenRouter:
		if strings.Contains(lower, "no auth credentials") || strings.Contains(lower, "user not found") {
			return msg + " Hint: check NEXA_PROVIDERS_OPENROUTER_API_KEY."
		}
	case ProviderOpenAI:
		if strings.Contains(lower, "incorrect api key provided") {
			return msg + " Hint: provider openai expects a Platform API key in NEXA_PROVIDERS_OPENAI_API_KEY."
		}
	}

	return msg
}
