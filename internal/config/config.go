package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers understood by the storage layer.
const (
	StorageBolt   = "bolt"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Config aggregates all runtime settings required by the client.
type Config struct {
	AppName     string
	Environment string
	API         APIConfig
	Storage     StorageConfig
	Redis       RedisConfig
	Session     SessionConfig
	Cart        CartConfig
	Monitor     MonitorConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Output      OutputConfig
	Mock        MockConfig
}

type APIConfig struct {
	BaseURL       string
	Timeout       time.Duration
	RetryAttempts int
	RetryBackoff  time.Duration
	UserAgent     string
	Endpoints     Endpoints
}

// Endpoints lists the backend paths the client calls.
type Endpoints struct {
	Login    string
	Refresh  string
	Register string
	Me       string

	Menu               string
	Categories         string
	SearchItems        string
	ListItems          string
	ItemByID           string
	CreateItem         string
	EditItem           string
	ToggleAvailability string
	DeleteItem         string

	CreateOrder     string
	MyOrders        string
	OrderByID       string
	OrderStatus     string
	CancelOrder     string
	AdminOrders     string
	AdminOrderStats string
	Health          string
}

type StorageConfig struct {
	Driver string
	Path   string
	Bucket string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
	Prefix   string
	Channel  string
}

type SessionConfig struct {
	ValidateInterval time.Duration
	ValidateTimeout  time.Duration
	ExpiryBuffer     time.Duration
}

type CartConfig struct {
	Expiry     time.Duration
	StorageKey string
}

type MonitorConfig struct {
	Interval time.Duration
}

type ContextConfig struct {
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
	Output   string
}

type OutputConfig struct {
	Colors bool
}

type MockConfig struct {
	Addr      string
	JWTSecret string
	TokenTTL  time.Duration
}

// DefaultEndpoints returns the paths exposed by the pizzeria backend.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Login:    "/auth/login",
		Refresh:  "/auth/refresh",
		Register: "/auth/register",
		Me:       "/users/me",

		Menu:               "/items/menu",
		Categories:         "/items/categories",
		SearchItems:        "/items/search",
		ListItems:          "/items/list-items",
		ItemByID:           "/items/get-item/%d",
		CreateItem:         "/items/create-item",
		EditItem:           "/items/edit-item/%d",
		ToggleAvailability: "/items/toggle-availability/%d",
		DeleteItem:         "/items/delete-item/%d",

		CreateOrder:     "/orders/create-order",
		MyOrders:        "/orders/my-orders",
		OrderByID:       "/orders/%d",
		OrderStatus:     "/orders/%d/status",
		CancelOrder:     "/orders/%d/cancel",
		AdminOrders:     "/orders/admin/all-orders",
		AdminOrderStats: "/orders/admin/stats",
		Health:          "/",
	}
}

// Load reads configuration from environment variables (optionally .env)
// and applies defaults matching the production backend.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "storefront"),
		Environment: getString("APP_ENV", "development"),
		API: APIConfig{
			BaseURL:       strings.TrimRight(getString("API_BASE_URL", "http://localhost:8000"), "/"),
			Timeout:       getDuration("API_TIMEOUT", 10*time.Second),
			RetryAttempts: getInt("API_RETRY_ATTEMPTS", 3),
			RetryBackoff:  getDuration("API_RETRY_BACKOFF", time.Second),
			UserAgent:     getString("API_USER_AGENT", "storefront-cli"),
			Endpoints:     DefaultEndpoints(),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(getString("STORAGE_DRIVER", StorageBolt)),
			Path:   getString("BOLTDB_PATH", "./data/storefront.db"),
			Bucket: getString("STORAGE_BUCKET", "local"),
		},
		Redis: RedisConfig{
			URL:      getString("REDIS_URL", "redis://localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
			Prefix:   getString("REDIS_PREFIX", "storefront:"),
			Channel:  getString("REDIS_CHANNEL", "storefront:storage"),
		},
		Session: SessionConfig{
			ValidateInterval: getDuration("SESSION_VALIDATE_INTERVAL", 5*time.Minute),
			ValidateTimeout:  getDuration("SESSION_VALIDATE_TIMEOUT", 10*time.Second),
			ExpiryBuffer:     getDuration("SESSION_EXPIRY_BUFFER", 300*time.Second),
		},
		Cart: CartConfig{
			Expiry:     getDuration("CART_EXPIRY", 24*time.Hour),
			StorageKey: getString("CART_STORAGE_KEY", "hashtag_pizzaria_cart"),
		},
		Monitor: MonitorConfig{
			Interval: getDuration("MONITOR_INTERVAL", 30*time.Second),
		},
		Context: ContextConfig{
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "warn"),
			Encoding: getString("LOG_ENCODING", "console"),
			Output:   getString("LOG_OUTPUT", "stderr"),
		},
		Output: OutputConfig{
			Colors: getBool("OUTPUT_COLORS", true),
		},
		Mock: MockConfig{
			Addr:      getString("MOCK_ADDR", "127.0.0.1:8000"),
			JWTSecret: getString("MOCK_JWT_SECRET", "storefront-dev-secret"),
			TokenTTL:  getDuration("MOCK_TOKEN_TTL", 30*time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageBolt, StorageRedis, StorageMemory:
	default:
		return fmt.Errorf("config: unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("config: API_BASE_URL must be an http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("config: API_TIMEOUT must be positive")
	}
	if c.API.RetryAttempts < 1 {
		c.API.RetryAttempts = 1
	}
	return nil
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// Path formats an endpoint template that carries a numeric id.
func (e Endpoints) Path(template string, id int64) string {
	return fmt.Sprintf(template, id)
}
