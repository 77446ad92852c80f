// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Neo4j       Neo4jConfig
	JWT         JWTConfig
	Pinning     PinningConfig
	Story       StoryConfig
	Generation  GenerationConfig
	AWS         AWSConfig
	I18n        I18nConfig
}

type ServerConfig struct {
	Port           string
	Host           string
	ReadTimeout    int
	WriteTimeout   int
	IdleTimeout    int
	AllowedOrigins []string
}

type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string
}

type JWTConfig struct {
	SecretKey  string
	SessionTTL int // in hours
}

type PinningConfig struct {
	APIURL     string
	JWT        string
	GatewayURL string
	MaxRetries int
}

type StoryConfig struct {
	GatewayURL      string
	APIKey          string
	ChainID         string
	ExplorerURL     string
	SPGCollection   string
	RevenueShare    float64 // percent, commercial-remix default
	MintingFee      string  // wei, decimal string
	LicenseCurrency string  // ERC-20 token address
	MaxRetries      int
}

type GenerationConfig struct {
	OpenAIKey    string
	Model        string
	DefaultSize  string
	MaxPromptLen int
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	CloudFrontURL   string
}

type I18nConfig struct {
	DefaultLocale string
	LocalesPath   string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Host:           getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:    getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout:   getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:    getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Neo4j: Neo4jConfig{
			URI:      getEnv("NEO4J_URI", "neo4j://localhost:7687"),
			Username: getEnv("NEO4J_USERNAME", "neo4j"),
			Password: getEnv("NEO4J_PASSWORD", ""),
			Database: getEnv("NEO4J_DATABASE", "neo4j"),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			SessionTTL: getEnvAsInt("JWT_SESSION_TTL", 24), // 24 hours
		},
		Pinning: PinningConfig{
			APIURL:     getEnv("PINATA_API_URL", "https://api.pinata.cloud"),
			JWT:        getEnv("PINATA_JWT", ""),
			GatewayURL: getEnv("IPFS_GATEWAY_URL", "https://gateway.pinata.cloud/ipfs"),
			MaxRetries: getEnvAsInt("PINATA_MAX_RETRIES", 3),
		},
		Story: StoryConfig{
			GatewayURL:      getEnv("STORY_GATEWAY_URL", "http://localhost:3001"),
			APIKey:          getEnv("STORY_API_KEY", ""),
			ChainID:         getEnv("STORY_CHAIN_ID", "1315"), // aeneid testnet
			ExplorerURL:     getEnv("STORY_EXPLORER_URL", "https://aeneid.explorer.story.foundation"),
			SPGCollection:   getEnv("STORY_SPG_COLLECTION", ""),
			RevenueShare:    getEnvAsFloat("STORY_REVENUE_SHARE", 10.0),
			MintingFee:      getEnv("STORY_MINTING_FEE", "0"),
			LicenseCurrency: getEnv("STORY_LICENSE_CURRENCY", "0x1514000000000000000000000000000000000000"),
			MaxRetries:      getEnvAsInt("STORY_MAX_RETRIES", 3),
		},
		Generation: GenerationConfig{
			OpenAIKey:    getEnv("OPENAI_API_KEY", ""),
			Model:        getEnv("GENERATION_MODEL", "dall-e-3"),
			DefaultSize:  getEnv("GENERATION_SIZE", "1024x1024"),
			MaxPromptLen: getEnvAsInt("GENERATION_MAX_PROMPT", 2000),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "arche-previews"),
			CloudFrontURL:   getEnv("AWS_CLOUDFRONT_URL", ""),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
			LocalesPath:   getEnv("LOCALES_PATH", "./internal/i18n/locales"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Neo4j.Password == "" && c.Environment == "production" {
		return fmt.Errorf("neo4j password is required in production")
	}

	if c.Story.RevenueShare < 0 || c.Story.RevenueShare > 100 {
		return fmt.Errorf("revenue share must be between 0 and 100")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
