package providers

const (
	groqAPIURL       = "https://api.groq.com/openai/v1/chat/completions"
	groqDefaultModel = "mixtral-8x7b-32768"
	groqMaxInput     = 12000
)

// NewGroqProvider creates a provider for Groq's OpenAI-compatible API.
func NewGroqProvider(config Config) *ChatProvider {
	if config.BaseURL == "" {
		config.BaseURL = groqAPIURL
	}
	if config.ModelID == "" {
		config.ModelID = groqDefaultModel
	}
	return newChatProvider(ProviderGroq, "Groq", groqMaxInput, config)
}
