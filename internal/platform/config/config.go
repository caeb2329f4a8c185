package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool

	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	// Document store (S3-compatible)
	S3Bucket        string
	S3Region        string
	S3Endpoint      string // optional, for MinIO-style deployments
	S3AccessKeyID   string // optional, falls back to the default credentials chain
	S3SecretKey     string
	S3PathStyle     bool
	S3KeyPrefix     string
	S3PublicBaseURL string

	// Mailer
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFromName string
	MailFromAddr string

	// Allowed browser origins
	FrontendBaseURL    string
	SecFrontendBaseURL string

	ResetCodeTTL time.Duration
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "24h")
	viper.SetDefault("JWT_ISSUER", "knm-bursary")
	viper.SetDefault("S3_BUCKET", "")
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("S3_ENDPOINT", "")
	viper.SetDefault("S3_ACCESS_KEY_ID", "")
	viper.SetDefault("S3_SECRET_ACCESS_KEY", "")
	viper.SetDefault("S3_PATH_STYLE", false)
	viper.SetDefault("S3_KEY_PREFIX", "applications")
	viper.SetDefault("S3_PUBLIC_BASE_URL", "")
	viper.SetDefault("SMTP_HOST", "")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_USERNAME", "")
	viper.SetDefault("SMTP_PASSWORD", "")
	viper.SetDefault("MAIL_FROM_NAME", "KnM Bursary")
	viper.SetDefault("MAIL_FROM_ADDR", "")
	viper.SetDefault("FRONTEND_BASE_URL", "http://localhost:3000")
	viper.SetDefault("SEC_FRONTEND_BASE_URL", "")
	viper.SetDefault("RESET_CODE_TTL", "1h")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	jwtExpiryStr := viper.GetString("JWT_EXPIRY_DURATION")
	jwtExpiryDuration, err := time.ParseDuration(jwtExpiryStr)
	if err != nil {
		jwtExpiryDuration = 24 * time.Hour
		log.Printf("Warning: Invalid value for JWT_EXPIRY_DURATION ('%s'). Defaulting to %s.\n", jwtExpiryStr, jwtExpiryDuration.String())
	}
	cfg.JWTExpiryDuration = jwtExpiryDuration

	cfg.S3Bucket = viper.GetString("S3_BUCKET")
	if cfg.S3Bucket == "" {
		log.Println("Warning: S3_BUCKET not set. Document uploads will not function.")
	}
	cfg.S3Region = viper.GetString("S3_REGION")
	cfg.S3Endpoint = viper.GetString("S3_ENDPOINT")
	cfg.S3AccessKeyID = viper.GetString("S3_ACCESS_KEY_ID")
	cfg.S3SecretKey = viper.GetString("S3_SECRET_ACCESS_KEY")
	cfg.S3PathStyle = viper.GetBool("S3_PATH_STYLE")
	cfg.S3KeyPrefix = viper.GetString("S3_KEY_PREFIX")
	cfg.S3PublicBaseURL = viper.GetString("S3_PUBLIC_BASE_URL")

	cfg.SMTPHost = viper.GetString("SMTP_HOST")
	if cfg.SMTPHost == "" {
		log.Println("Warning: SMTP_HOST not set. Outbound email will not function.")
	}
	cfg.SMTPPort = viper.GetInt("SMTP_PORT")
	cfg.SMTPUsername = viper.GetString("SMTP_USERNAME")
	cfg.SMTPPassword = viper.GetString("SMTP_PASSWORD")
	cfg.MailFromName = viper.GetString("MAIL_FROM_NAME")
	cfg.MailFromAddr = viper.GetString("MAIL_FROM_ADDR")

	cfg.FrontendBaseURL = viper.GetString("FRONTEND_BASE_URL")
	cfg.SecFrontendBaseURL = viper.GetString("SEC_FRONTEND_BASE_URL")

	resetTTLStr := viper.GetString("RESET_CODE_TTL")
	resetTTL, err := time.ParseDuration(resetTTLStr)
	if err != nil {
		resetTTL = time.Hour
		log.Printf("Warning: Invalid value for RESET_CODE_TTL ('%s'). Defaulting to %s.\n", resetTTLStr, resetTTL.String())
	}
	cfg.ResetCodeTTL = resetTTL

	return cfg, nil
}

// AllowedOrigins returns the configured browser origins, empty entries removed.
func (c *Config) AllowedOrigins() []string {
	origins := make([]string, 0, 2)
	for _, o := range []string{c.FrontendBaseURL, c.SecFrontendBaseURL} {
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
