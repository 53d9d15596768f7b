package conf

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ConfigPath  string
	Verbose     bool
	ApiGinMode  string
	InitSQLPath string
	LogLevel    string
	LogFormat   string

	Ip                       string
	Port                     string
	APIBase                  string
	AuthAddress              string
	ClubServiceAddress       string
	AssignmentServiceAddress string
	DocumentServiceAddress   string
	FrontAddress             string

	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string

	//kc
	Issuer       string
	Audience     string
	Realm        string
	ClientID     string
	ClientSecret string

	// database
	DBAddress  string
	DBUser     string
	DBPassword string
	DBName     string

	// files
	StorageBackend  string
	StorageDir      string
	S3Bucket        string
	S3Region        string
	MaxUploadMB     int
	TemplateCatalog string

	// board
	PollInterval   time.Duration
	RequestTimeout time.Duration
}

var secretFields = map[string]bool{
	"ClientSecret": true,
	"DBPassword":   true,
}

// Load reads the .env file at path (if any) and fills the config from the
// environment. defaultPort and defaultInitSQL differ per service.
func Load(path, defaultPort, defaultInitSQL string) Config {
	if err := godotenv.Load(path); err != nil {
		slog.Warn("failed to load the config file, using defaults", "path", path, "error", err)
	}

	s := strings.Split(path, "/")
	config := Config{
		ConfigPath:  s[len(s)-1],
		Verbose:     getBoolEnv("VERBOSE", "true"),
		ApiGinMode:  getEnv("GIN_MODE", "debug"),
		InitSQLPath: getEnv("INIT_SQL_PATH", defaultInitSQL),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),

		Ip:                       getEnv("IP", ""),
		Port:                     getEnv("PORT", defaultPort),
		APIBase:                  getEnv("API_BASE", "http://localhost:5045/api"),
		AuthAddress:              getEnv("AUTH_ADDRESS", "localhost:5555"),
		ClubServiceAddress:       getEnv("CLUBSERVICE_ADDRESS", "http://localhost:5015"),
		AssignmentServiceAddress: getEnv("ASSIGNMENTSERVICE_ADDRESS", "http://localhost:5030"),
		DocumentServiceAddress:   getEnv("DOCUMENTSERVICE_ADDRESS", "http://localhost:5035"),
		FrontAddress:             getEnv("FRONT_ADDRESS", "http://localhost:5045"),
		AllowedOrigins:           getEnvFields("ALLOW_ORIGINS", []string{"*"}),
		AllowedMethods:           getEnvFields("ALLOW_METHODS", []string{"*"}),
		AllowedHeaders:           getEnvFields("ALLOW_HEADERS", []string{"*"}),

		Issuer:       getEnv("KC_ISSUER", "http://localhost:5555"),
		Audience:     getEnv("KC_AUDIENCE", "clubs-front"),
		Realm:        getEnv("KC_REALM", "clubs"),
		ClientID:     getEnv("KC_CLIENT", "admin"),
		ClientSecret: getEnv("KC_CLIENT_SECRET", ""),

		DBAddress:  getEnv("DB_ADDRESS", "api-db:5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "clubs"),

		StorageBackend:  getEnv("STORAGE_BACKEND", "local"),
		StorageDir:      getEnv("STORAGE_DIR", "./uploads"),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Region:        getEnv("S3_REGION", "eu-central-1"),
		MaxUploadMB:     getIntEnv("MAX_UPLOAD_MB", 25),
		TemplateCatalog: getEnv("TEMPLATE_CATALOG", ""),

		PollInterval:   getDurationEnv("POLL_INTERVAL", 30*time.Second),
		RequestTimeout: getDurationEnv("REQUEST_TIMEOUT", 10*time.Second),
	}

	if config.Verbose {
		fmt.Print(config.String())
	}

	return config
}

// DSN builds the postgres connection string.
func (cfg Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=disable",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBAddress,
		cfg.DBName,
	)
}

// ListenAddr is the address the service binds. An empty IP listens on all interfaces.
func (cfg Config) ListenAddr() string {
	return net.JoinHostPort(cfg.Ip, cfg.Port)
}

// JWKSURL and RealmIssuer point at the keycloak realm.
func (cfg Config) JWKSURL() string {
	return fmt.Sprintf("http://%s/realms/%s/protocol/openid-connect/certs", cfg.AuthAddress, cfg.Realm)
}

func (cfg Config) RealmIssuer() string {
	return fmt.Sprintf("http://%s/realms/%s", cfg.AuthAddress, cfg.Realm)
}

func getEnv(env, fallback string) string {
	if value, exists := os.LookupEnv(env); exists {
		return value
	}

	return fallback
}

func getEnvFields(env string, fallback []string) []string {
	if value, exists := os.LookupEnv(env); exists {
		fields := strings.Split(strings.TrimSpace(value), ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		return fields
	}

	return fallback
}

func getBoolEnv(env, fallback string) bool {
	if value, exists := os.LookupEnv(env); exists {
		return strings.ToLower(value) == "true"
	}

	return strings.ToLower(fallback) == "true"
}

func getIntEnv(env string, fallback int) int {
	if value, exists := os.LookupEnv(env); exists {
		int_value, err := strconv.Atoi(value)
		if err == nil {
			return int_value
		}
	}

	return fallback
}

func getDurationEnv(env string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(env); exists {
		d, err := time.ParseDuration(value)
		if err == nil && d > 0 {
			return d
		}
	}

	return fallback
}

// String dumps the configuration one field per line, secrets masked.
func (cfg Config) String() string {
	var strBuilder strings.Builder

	reflectedValues := reflect.ValueOf(cfg)
	reflectedTypes := reflect.TypeOf(cfg)

	strBuilder.WriteString(fmt.Sprintf("[CFG]CONFIGURATION: %s\n", cfg.ConfigPath))

	for i := range reflectedValues.NumField() {
		fieldName := reflectedTypes.Field(i).Name
		fieldValue := reflectedValues.Field(i).Interface()

		if secretFields[fieldName] && fieldValue != "" {
			fieldValue = "****"
		}

		strBuilder.WriteString(fmt.Sprintf("[CFG]%2d. %-26s -> %v\n", i+1, fieldName, fieldValue))
	}

	return strBuilder.String()
}
