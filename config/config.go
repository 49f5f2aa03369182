package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Stripe     StripeConfig
	Firebase   FirebaseConfig
	Cloudinary CloudinaryConfig
	Checkout   CheckoutConfig
	Admin      AdminConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	// ConfirmTimeout bounds the payment-intent retrieval round trip.
	// A timeout surfaces as retryable, never as a failed payment.
	ConfirmTimeout time.Duration
}

type FirebaseConfig struct {
	ServiceAccountPath string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

type CheckoutConfig struct {
	Currency        string
	MaxLineQuantity int
}

// AdminConfig seeds the first admin account on boot when none exists.
type AdminConfig struct {
	Email    string
	Password string
}

func Load() *Config {
	_ = godotenv.Load()
	return &Config{
		Server: ServerConfig{
			Port:         getenv("SERVER_PORT", "8080"),
			Env:          getenv("APP_ENV", "development"),
			ReadTimeout:  getduration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getduration("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			DSN:             getenv("DATABASE_DSN", "smartsales:smartsales@tcp(localhost:3306)/smartsales?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    getint("DATABASE_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getint("DATABASE_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getduration("DATABASE_CONN_MAX_LIFETIME", time.Hour),
		},
		JWT: JWTConfig{
			AccessSecret:  getenv("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: getenv("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  getduration("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshExpiry: getduration("JWT_REFRESH_EXPIRY", 168*time.Hour),
			Issuer:        getenv("JWT_ISSUER", "smartsales365"),
		},
		Stripe: StripeConfig{
			SecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret:  os.Getenv("STRIPE_WEBHOOK_SECRET"),
			ConfirmTimeout: getduration("STRIPE_CONFIRM_TIMEOUT", 15*time.Second),
		},
		Firebase: FirebaseConfig{
			ServiceAccountPath: os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		},
		Checkout: CheckoutConfig{
			Currency:        getenv("DEFAULT_CURRENCY", "USD"),
			MaxLineQuantity: getint("CHECKOUT_MAX_LINE_QUANTITY", 50),
		},
		Admin: AdminConfig{
			Email:    getenv("ADMIN_EMAIL", "admin@smartsales365.local"),
			Password: getenv("ADMIN_PASSWORD", "change-me-admin"),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
