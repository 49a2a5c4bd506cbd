package bootstrap

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const DefaultModelPath = "weizhiwang/llava_llama3_8b_video"

type Config struct {
	ServerAddr string
	LogLevel   string

	DatabaseDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration
	FrameTTL      time.Duration

	ModelBackend     string
	ModelPath        string
	ModelBase        string
	Load8Bit         bool
	Load4Bit         bool
	Device           string
	ModelLoadTimeout time.Duration
	MaxNewTokens     int
	NumCtx           int

	OllamaURL       string
	OllamaPull      bool
	OllamaKeepAlive string
	OllamaTimeout   time.Duration

	OpenAIURL     string
	OpenAIKey     string
	OpenAIModel   string
	OpenAISystem  string
	OpenAITimeout time.Duration

	ConvTemplate  string
	TemplatesFile string

	FFmpegPath       string
	FFmpegTimeout    time.Duration
	SampleCount      int
	ImageSize        int
	MaxDecodedFrames int

	UploadDir      string
	MaxUploadBytes int64
}

func LoadConfig() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		DatabaseDSN: getEnv("DATABASE_DSN", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		SessionTTL:    getEnvDuration("SESSION_TTL", 24*time.Hour),
		FrameTTL:      getEnvDuration("FRAME_TTL", 24*time.Hour),

		ModelBackend:     getEnv("MODEL_BACKEND", "ollama"),
		ModelPath:        getEnv("MODEL_PATH", DefaultModelPath),
		ModelBase:        getEnv("MODEL_BASE", ""),
		Load8Bit:         getEnvBool("LOAD_8BIT", false),
		Load4Bit:         getEnvBool("LOAD_4BIT", false),
		Device:           getEnv("DEVICE", "cuda"),
		ModelLoadTimeout: getEnvDuration("MODEL_LOAD_TIMEOUT", 10*time.Minute),
		MaxNewTokens:     getEnvInt("MAX_NEW_TOKENS", 128),
		NumCtx:           getEnvInt("NUM_CTX", 0),

		OllamaURL:       getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaPull:      getEnvBool("OLLAMA_PULL", false),
		OllamaKeepAlive: getEnv("OLLAMA_KEEP_ALIVE", ""),
		OllamaTimeout:   getEnvDuration("OLLAMA_TIMEOUT", 5*time.Minute),

		OpenAIURL:     getEnv("OPENAI_URL", "https://api.openai.com/v1"),
		OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", ""),
		OpenAISystem:  getEnv("OPENAI_SYSTEM", ""),
		OpenAITimeout: getEnvDuration("OPENAI_TIMEOUT", 2*time.Minute),

		ConvTemplate:  getEnv("CONV_TEMPLATE", "llama_3"),
		TemplatesFile: getEnv("TEMPLATES_FILE", ""),

		FFmpegPath:       getEnv("FFMPEG_PATH", "ffmpeg"),
		FFmpegTimeout:    getEnvDuration("FFMPEG_TIMEOUT", 5*time.Minute),
		SampleCount:      getEnvInt("SAMPLE_COUNT", 30),
		ImageSize:        getEnvInt("IMAGE_SIZE", 336),
		MaxDecodedFrames: getEnvInt("MAX_DECODED_FRAMES", 18000),

		UploadDir:      getEnv("UPLOAD_DIR", os.TempDir()),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 512)) << 20,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultValue
	}
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
