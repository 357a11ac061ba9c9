// Package config provides environment configuration for the assistant service.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment selects secret ids and resource names.
type Environment string

const (
	EnvDev  Environment = "dev"
	EnvProd Environment = "prod"
)

// AssistantMode controls which specialists are exposed.
type AssistantMode string

const (
	// ModeAutoRoute routes queries through the rule engine.
	ModeAutoRoute AssistantMode = "auto_route"
	// ModeAdvanced additionally exposes the legacy subject specialists.
	ModeAdvanced AssistantMode = "advanced"
)

// MemoryBackend selects the knowledge persistence backend.
type MemoryBackend string

const (
	BackendKnowledgeBase     MemoryBackend = "knowledge_base"
	BackendAlternativeMemory MemoryBackend = "alternative_memory"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// Assistant settings
	ModelID       string
	Environment   Environment
	Region        string
	AssistantMode AssistantMode
	MemoryBackend MemoryBackend

	// Legacy specialist flags (advanced mode only)
	EnableMath    bool
	EnableEnglish bool
	EnableAWS     bool
	EnableLegal   bool

	// Pipeline settings
	RequestTimeout  time.Duration
	ExternalTimeout time.Duration
	ToolTimeout     time.Duration
	MaxToolDepth    int
	CacheTTL        time.Duration
	AgentPoolSize   int

	// NATS settings
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// Redis settings
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT settings
	JWTSecret     string
	JWTExpiration time.Duration

	// LLM settings
	AnthropicAPIKey string
	OpenAIAPIKey    string
	DefaultLLM      string

	// Knowledge base
	KnowledgeBaseID string

	// External data services
	FlightAPIURL  string
	F1APIURL      string
	MarketAPIURL  string
	WeatherAPIURL string
	NewsAPIURL    string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 150*time.Second),

		// Assistant
		ModelID:       getEnv("MODEL_ID", "claude-3-5-sonnet-20241022"),
		Environment:   Environment(getEnv("ENVIRONMENT", string(EnvDev))),
		Region:        getEnv("REGION", "us-east-1"),
		AssistantMode: AssistantMode(getEnv("ASSISTANT_MODE", string(ModeAutoRoute))),
		MemoryBackend: MemoryBackend(getEnv("MEMORY_BACKEND", string(BackendKnowledgeBase))),

		// Legacy specialists
		EnableMath:    getBoolEnv("ENABLE_MATH_SPECIALIST", true),
		EnableEnglish: getBoolEnv("ENABLE_ENGLISH_SPECIALIST", true),
		EnableAWS:     getBoolEnv("ENABLE_AWS_SPECIALIST", true),
		EnableLegal:   getBoolEnv("ENABLE_LEGAL_SPECIALIST", true),

		// Pipeline
		RequestTimeout:  getDurationEnv("REQUEST_TIMEOUT", 120*time.Second),
		ExternalTimeout: getDurationEnv("EXTERNAL_TIMEOUT", 10*time.Second),
		ToolTimeout:     getDurationEnv("TOOL_TIMEOUT", 10*time.Second),
		MaxToolDepth:    getIntEnv("MAX_TOOL_DEPTH", 8),
		CacheTTL:        getDurationEnv("CACHE_TTL", 300*time.Second),
		AgentPoolSize:   getIntEnv("AGENT_POOL_SIZE", 50),

		// NATS
		NATSURL:      getEnv("NATS_URL", "nats://localhost:4222"),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// Redis
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		// JWT
		JWTSecret:     getEnv("JWT_SECRET", "development-secret-change-in-production"),
		JWTExpiration: getDurationEnv("JWT_EXPIRATION", 15*time.Minute),

		// LLM
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		DefaultLLM:      getEnv("DEFAULT_LLM", "anthropic"),

		// Knowledge base
		KnowledgeBaseID: getEnv("KNOWLEDGE_BASE_ID", ""),

		// External data services
		FlightAPIURL:  getEnv("FLIGHT_API_URL", ""),
		F1APIURL:      getEnv("F1_API_URL", ""),
		MarketAPIURL:  getEnv("MARKET_API_URL", ""),
		WeatherAPIURL: getEnv("WEATHER_API_URL", ""),
		NewsAPIURL:    getEnv("NEWS_API_URL", ""),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

// SpecialistEnabled reports whether a legacy specialist flag is set.
// Legacy specialists only participate in advanced mode.
func (c *Config) SpecialistEnabled(name string) bool {
	if c.AssistantMode != ModeAdvanced {
		return false
	}
	switch strings.ToLower(name) {
	case "math":
		return c.EnableMath
	case "english":
		return c.EnableEnglish
	case "aws":
		return c.EnableAWS
	case "legal":
		return c.EnableLegal
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
