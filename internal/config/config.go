package config // package config loads application configuration from environment variables

import (
	"log" // log is used to report configuration errors and halt execution
	"os"  // os provides access to environment variables
	"strings"

	"github.com/joho/godotenv"
)

// ID strategies understood by the identifier generator.
const (
	IDStrategyScan    = "scan"
	IDStrategyCounter = "counter"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Sub-configs group the optional integrations.
type Config struct {
	Env            string // application environment (development, production, test)
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	BcryptCost     int    // bcrypt cost for password hashing
	LogLevel       string
	IDStrategy     string   // scan | counter
	CORSOrigins    []string // allowed origins, "*" when unset
	FrontendURL    string   // base URL used in password reset links
	BodyLimit      string   // echo body limit, e.g. "10M"
	MigrateOnStart bool

	Upload  UploadConfig
	Storage StorageConfig
	Mail    MailConfig
	Queue   QueueConfig
}

// IsProduction reports whether internal error details must be hidden.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production") || strings.EqualFold(c.Env, "prod")
}

// Load reads configuration values from the environment (and from a .env
// file when one exists) and returns a Config.  Required variables are
// enforced by must() and missing values cause the program to exit.
func Load() Config {
	_ = godotenv.Load() // a missing .env file is fine; real env wins

	strategy := strings.ToLower(envStr("ID_STRATEGY", IDStrategyScan))
	if strategy != IDStrategyCounter {
		strategy = IDStrategyScan
	}

	return Config{
		Env:            envStr("APP_ENV", "development"),
		Port:           envStr("APP_PORT", "5000"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         envStr("DB_PORT", "3306"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 7*24*60),
		BcryptCost:     envInt("BCRYPT_COST", 12),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		IDStrategy:     strategy,
		CORSOrigins:    splitList(envStr("CORS_ORIGINS", "*")),
		FrontendURL:    strings.TrimRight(envStr("FRONTEND_URL", "http://localhost:3000"), "/"),
		BodyLimit:      envStr("BODY_LIMIT", "10M"),
		MigrateOnStart: envBool("DB_MIGRATE", true),
		Upload:         LoadUploadConfig(),
		Storage:        LoadStorageConfig(),
		Mail:           LoadMailConfig(),
		Queue:          LoadQueueConfig(),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
