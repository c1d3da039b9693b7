// Package config assembles the service configuration from built-in defaults,
// an optional JSON file, environment variables and command line flags,
// in increasing order of priority, and validates the result.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"
	"reflect"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every tunable of the service.
type Config struct {
	ConfigFile        string        `env:"CONFIG" json:"-"`
	RunAddr           string        `env:"SERVER_ADDRESS" json:"server_address" validate:"hostname_port"`
	LogLevel          string        `env:"LOG_LEVEL" json:"log_level" validate:"loglevel"`
	SessionCookieName string        `env:"SESSION_COOKIE_NAME" json:"session_cookie_name" validate:"required"`
	SessionSigningKey string        `env:"SESSION_SIGNING_KEY" json:"session_signing_key" validate:"required,base64url"`
	SessionMaxAge     time.Duration `env:"SESSION_MAX_AGE" json:"-" validate:"gt=0"`
	ShortKeyLength    int           `env:"SHORT_KEY_LENGTH" json:"short_key_length" validate:"min=4,max=64"`
	UserIDLength      int           `env:"USER_ID_LENGTH" json:"user_id_length" validate:"min=4,max=64"`
	VisitorIDLength   int           `env:"VISITOR_ID_LENGTH" json:"visitor_id_length" validate:"min=8,max=64"`
	PasswordHashCost  int           `env:"PASSWORD_HASH_COST" json:"password_hash_cost" validate:"min=10,max=31"`
	LoginPolicy       string        `env:"LOGIN_POLICY" json:"login_policy" validate:"oneof=any email username"`
	TrustedSubnet     string        `env:"TRUSTED_SUBNET" json:"trusted_subnet" validate:"omitempty,cidr"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" json:"-" validate:"gt=0"`
}

var defaultConfig = Config{
	RunAddr:           ":8080",
	LogLevel:          "info",
	SessionCookieName: "session",
	SessionSigningKey: "NSd3jDtl3BG87nSZdX81OJXiSIuN-CSiZPAgeI38mCQ=",
	SessionMaxAge:     24 * time.Hour,
	ShortKeyLength:    6,
	UserIDLength:      6,
	VisitorIDLength:   8,
	PasswordHashCost:  10,
	LoginPolicy:       "any",
	ShutdownTimeout:   10 * time.Second,
}

type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// New builds the configuration. Priority: CLI flags > environment > JSON file > defaults.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Unable to load .env file: %v", err)
	}

	var fromFlags Config
	if !options.disableFlagsParsing {
		if err := parseFlags(&fromFlags, os.Args[1:]); err != nil {
			return nil, err
		}
	}

	var fromEnv Config
	if err := env.Parse(&fromEnv); err != nil {
		return nil, err
	}

	configFile := fromFlags.ConfigFile
	if configFile == "" {
		configFile = fromEnv.ConfigFile
	}

	var fromJSON Config
	if configFile != "" {
		if err := loadJSON(configFile, &fromJSON); err != nil {
			return nil, err
		}
	}

	values := fromFlags
	values.ConfigFile = configFile
	applyDefaults(&values, fromEnv)
	applyDefaults(&values, fromJSON)
	applyDefaults(&values, defaultConfig)

	if err := values.validate(); err != nil {
		return nil, err
	}

	return &values, nil
}

func parseFlags(values *Config, args []string) error {
	flags := flag.NewFlagSet("tinyapp", flag.ContinueOnError)
	flags.StringVar(&values.ConfigFile, "c", "", "path to a JSON configuration file")
	flags.StringVar(&values.RunAddr, "a", "", "address and port to run server")
	flags.StringVar(&values.LogLevel, "l", "", "logger level")
	flags.StringVar(&values.LoginPolicy, "p", "", "login lookup policy: any, email or username")
	flags.StringVar(&values.TrustedSubnet, "t", "", "CIDR allowed to read the internal statistics")
	flags.IntVar(&values.ShortKeyLength, "k", 0, "length of generated short keys")
	flags.DurationVar(&values.SessionMaxAge, "s", 0, "session lifetime")

	return flags.Parse(args)
}

func loadJSON(fileName string, values *Config) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, values)
}

// applyDefaults copies every field of defaults into values where values holds the zero value.
func applyDefaults(values *Config, defaults Config) {
	target := reflect.ValueOf(values).Elem()
	source := reflect.ValueOf(defaults)
	for i := 0; i < target.NumField(); i++ {
		if target.Field(i).IsZero() {
			target.Field(i).Set(source.Field(i))
		}
	}
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[value]
}

func (values *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	return validate.Struct(values)
}
