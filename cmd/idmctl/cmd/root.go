package cmd

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pilab-dev/identity-store/config"
	"github.com/pilab-dev/identity-store/mongodb"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "idmctl",
	Short: "idmctl is a CLI tool to inspect and manage identity store records",
	Long:  `A command-line interface for managing users, claims, logins and tokens stored in the MongoDB identity store.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded

		level, err := zerolog.ParseLevel(cfg.LogLevel)
		if err != nil {
			level = zerolog.InfoLevel
		}
		zerolog.SetGlobalLevel(level)
		if cfg.LogPretty {
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("idmctl execution failed")
		os.Exit(1)
	}
}

// openStore connects to MongoDB using the loaded configuration and returns
// the store plus a teardown function.
func openStore(cmd *cobra.Command) (*mongodb.Store, func(), error) {
	ctx := cmd.Context()
	client, err := mongodb.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, nil, err
	}

	store, err := mongodb.NewStore(ctx, client.Database(cfg.MongoDBName), mongodb.CollectionNames{
		Users:      cfg.UsersCollection,
		UserClaims: cfg.UserClaimsCollection,
		UserLogins: cfg.UserLoginsCollection,
		UserTokens: cfg.UserTokensCollection,
	})
	if err != nil {
		mongodb.Disconnect(context.Background(), client)
		return nil, nil, err
	}

	teardown := func() {
		store.Close()
		mongodb.Disconnect(context.Background(), client)
	}
	return store, teardown, nil
}
