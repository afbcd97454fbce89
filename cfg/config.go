package cfg

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// GDSConfig holds the supplier credentials and one URL per supplier operation.
type GDSConfig struct {
	AuthURL        string
	SearchURL      string
	FareRuleURL    string
	FareQuoteURL   string
	SSRURL         string
	BookURL        string
	TicketURL      string
	ClientID       string
	UserName       string
	Password       string
	EndUserIP      string
	TimeoutSeconds int
	TokenTTLHours  int
}

type Oauth2Config struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectUrl  string
	FrontendURL        string
}

type ObservabilityConfig struct {
	ServiceName  string
	Environment  string
	OTLPEndpoint string
}

type Config struct {
	AppEnv          string
	AppPort         string
	SnowflakeNodeID int64
	GDS             GDSConfig
	Redis           RedisConfig
	Postgres        PostgresConfig
	OAuth2          Oauth2Config
	Observability   ObservabilityConfig
}

func Load() (*Config, error) {
	var errs []error

	// missing .env is fine
	_ = godotenv.Load()

	appEnv := mustEnv("APP_ENV", &errs)
	appPort := optionalEnv("APP_PORT", "3001")
	nodeID := intEnv("SNOWFLAKE_NODE_ID", 1, &errs)

	gds := GDSConfig{
		AuthURL:        mustEnv("GDS_AUTH_URL", &errs),
		SearchURL:      mustEnv("GDS_SEARCH_URL", &errs),
		FareRuleURL:    mustEnv("GDS_FARE_RULE_URL", &errs),
		FareQuoteURL:   mustEnv("GDS_FARE_QUOTE_URL", &errs),
		SSRURL:         mustEnv("GDS_SSR_URL", &errs),
		BookURL:        mustEnv("GDS_BOOK_URL", &errs),
		TicketURL:      mustEnv("GDS_TICKET_URL", &errs),
		ClientID:       mustEnv("GDS_CLIENT_ID", &errs),
		UserName:       mustEnv("GDS_USERNAME", &errs),
		Password:       mustEnv("GDS_PASSWORD", &errs),
		EndUserIP:      mustEnv("GDS_END_USER_IP", &errs),
		TimeoutSeconds: intEnv("GDS_TIMEOUT_SECONDS", 60, &errs),
		TokenTTLHours:  intEnv("GDS_TOKEN_TTL_HOURS", 23, &errs),
	}

	redis := RedisConfig{
		Host:     mustEnv("REDIS_HOST", &errs),
		Port:     mustEnv("REDIS_PORT", &errs),
		Password: optionalEnv("REDIS_PASSWORD", ""),
	}

	postgres := postgresEnv(&errs)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &Config{
		AppEnv:          appEnv,
		AppPort:         appPort,
		SnowflakeNodeID: int64(nodeID),
		GDS:             gds,
		Redis:           redis,
		Postgres:        postgres,
		OAuth2: Oauth2Config{
			GoogleClientID:     optionalEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: optionalEnv("GOOGLE_CLIENT_SECRET", ""),
			GoogleRedirectUrl:  optionalEnv("GOOGLE_REDIRECT_URL", "/auth/google/callback"),
			FrontendURL:        optionalEnv("FRONTEND_URL", "http://localhost:3000"),
		},
		Observability: ObservabilityConfig{
			ServiceName:  optionalEnv("OTEL_SERVICE_NAME", "flightbroker"),
			Environment:  appEnv,
			OTLPEndpoint: optionalEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		},
	}, nil
}

// LoadPostgres reads only the database settings, for tools such as the migrator.
func LoadPostgres() (*PostgresConfig, error) {
	var errs []error
	_ = godotenv.Load()

	postgres := postgresEnv(&errs)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &postgres, nil
}

func postgresEnv(errs *[]error) PostgresConfig {
	return PostgresConfig{
		Host:     mustEnv("POSTGRES_HOST", errs),
		Port:     mustEnv("POSTGRES_PORT", errs),
		User:     mustEnv("POSTGRES_USER", errs),
		Password: mustEnv("POSTGRES_PASSWORD", errs),
		DBName:   mustEnv("POSTGRES_DB", errs),
		SSLMode:  optionalEnv("POSTGRES_SSLMODE", "disable"),
	}
}

func mustEnv(key string, errs *[]error) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		*errs = append(*errs, errors.New("missing env: "+key))
	}
	return value
}

func optionalEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	return value
}

func intEnv(key string, fallback int, errs *[]error) int {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, errors.New("conversion failed env: "+key))
		return fallback
	}
	return n
}
