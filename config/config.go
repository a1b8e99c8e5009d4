// Package config loads the identity store configuration from file,
// environment variables and defaults, in that order of increasing precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	iderrors "github.com/pilab-dev/identity-store/errors"
)

// Config holds everything needed to construct the MongoDB identity store.
// Tags use mapstructure for Viper unmarshalling.
type Config struct {
	MongoURI    string `mapstructure:"MONGO_URI"`
	MongoDBName string `mapstructure:"MONGO_DB_NAME"`

	// Collection names for the four logical document collections.
	UsersCollection      string `mapstructure:"USERS_COLLECTION"`
	UserClaimsCollection string `mapstructure:"USER_CLAIMS_COLLECTION"`
	UserLoginsCollection string `mapstructure:"USER_LOGINS_COLLECTION"`
	UserTokensCollection string `mapstructure:"USER_TOKENS_COLLECTION"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogPretty bool   `mapstructure:"LOG_PRETTY"`
}

// Load reads configuration from an optional config.yaml (working directory or
// /etc/identity-store/), environment variables and built-in defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/identity-store/")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB_NAME", "identity")
	v.SetDefault("USERS_COLLECTION", "identity_users")
	v.SetDefault("USER_CLAIMS_COLLECTION", "identity_user_claims")
	v.SetDefault("USER_LOGINS_COLLECTION", "identity_user_logins")
	v.SetDefault("USER_TOKENS_COLLECTION", "identity_user_tokens")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env vars apply. Any
		// other read error (malformed file, permissions) is real.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration eagerly so misconfiguration surfaces at
// startup, never on first use.
func (c *Config) Validate() error {
	switch {
	case c.MongoURI == "":
		return iderrors.NewConfiguration("MONGO_URI must not be empty")
	case c.MongoDBName == "":
		return iderrors.NewConfiguration("MONGO_DB_NAME must not be empty")
	}
	for name, value := range map[string]string{
		"USERS_COLLECTION":       c.UsersCollection,
		"USER_CLAIMS_COLLECTION": c.UserClaimsCollection,
		"USER_LOGINS_COLLECTION": c.UserLoginsCollection,
		"USER_TOKENS_COLLECTION": c.UserTokensCollection,
	} {
		if value == "" {
			return iderrors.NewConfiguration(name + " must not be empty")
		}
	}
	return nil
}
