package config

import (
	"os"
	"strconv"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

type LLMConfig struct {
	Provider    string
	Model       string
	Temperature float32
}

type EmbeddingsConfig struct {
	Provider  string
	Model     string
	Dimension int
}

type Config struct {
	LLM        LLMConfig
	Embeddings EmbeddingsConfig

	OllamaHost    string
	OpenAIAPIKey  string
	OpenAIBaseURL string

	PostgresDSN string
	Neo4jURI    string
	Neo4jUser   string
	Neo4jPass   string

	// DataDir holds per-run uploaded files, StorageDir per-run artifacts.
	DataDir    string
	StorageDir string

	// MaxPromptChars truncates document content before each extraction call.
	MaxPromptChars int
	AutoPurgeDays  int
}

func Load() Config {
	return Config{
		LLM: LLMConfig{
			Provider:    getEnv("LLM_PROVIDER", ProviderOpenAI),
			Model:       getEnv("LLM_MODEL", "gpt-4o"),
			Temperature: float32(getEnvFloat("TEMPERATURE", 0.3)),
		},
		Embeddings: EmbeddingsConfig{
			Provider:  getEnv("EMBEDDING_PROVIDER", ProviderOpenAI),
			Model:     getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
			Dimension: getEnvInt("EMBEDDING_DIMENSION", 1536),
		},
		OllamaHost:     getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", ""),
		PostgresDSN:    getEnv("POSTGRES_DSN", "postgres://localhost:5432/ao-agent?sslmode=disable"),
		Neo4jURI:       getEnv("NEO4J_URI", ""),
		Neo4jUser:      getEnv("NEO4J_USERNAME", "neo4j"),
		Neo4jPass:      getEnv("NEO4J_PASSWORD", "password"),
		DataDir:        getEnv("DATA_DIR", "./uploads"),
		StorageDir:     getEnv("STORAGE_DIR", "./storage"),
		MaxPromptChars: getEnvInt("MAX_TOKENS_PER_REQUEST", 4000),
		AutoPurgeDays:  getEnvInt("AUTO_PURGE_DAYS", 3),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
