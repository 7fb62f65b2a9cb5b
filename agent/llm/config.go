package llm

import "time"

const (
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	groqBaseURL   = "https://api.groq.com/openai/v1"
)

type Config struct {
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`
	GeminiModel  string `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	GroqAPIKey   string `envconfig:"GROQ_API_KEY"`
	GroqModel    string `envconfig:"GROQ_MODEL" default:"llama-3.3-70b-versatile"`

	MaxTokens   int           `envconfig:"MAX_TOKENS" split_words:"true" default:"1024"`
	Temperature float64       `envconfig:"TEMPERATURE" split_words:"true" default:"0.7"`
	Timeout     time.Duration `envconfig:"LLM_TIMEOUT" split_words:"true" default:"30s"`
}

// NewChain builds the provider chain from configuration: Gemini primary,
// Groq fallback, each included only when its key is set.
func NewChain(cfg Config) *Chain {
	var providers []Provider
	if cfg.GeminiAPIKey != "" {
		p := NewOpenAIProvider("gemini", geminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel)
		p.temperature = cfg.Temperature
		p.timeout = cfg.Timeout
		providers = append(providers, p)
	}
	if cfg.GroqAPIKey != "" {
		p := NewOpenAIProvider("groq", groqBaseURL, cfg.GroqAPIKey, cfg.GroqModel)
		p.temperature = cfg.Temperature
		p.timeout = cfg.Timeout
		providers = append(providers, p)
	}
	return NewChainOf(providers...)
}
