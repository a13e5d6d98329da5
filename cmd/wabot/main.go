package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/wabot/internal/profile"
	"github.com/hrygo/wabot/internal/version"
	"github.com/hrygo/wabot/server"
	"github.com/hrygo/wabot/store"
	"github.com/hrygo/wabot/store/db"
)

var rootCmd = &cobra.Command{
	Use:          "wabot",
	Short:        `A WhatsApp assistant that routes messages through LLM intent classification.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return setupLogger()
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the webhook and the admin API (default)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8080)
	viper.SetDefault("log-level", "info")

	flags := rootCmd.PersistentFlags()
	flags.String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	flags.String("addr", "", "address of server")
	flags.Int("port", 8080, "port of server")
	flags.String("data", "", "data directory")
	flags.String("driver", "sqlite", "database driver (sqlite or postgres)")
	flags.String("dsn", "", "database source name(aka. DSN)")
	flags.String("secret", "", "secret used to sign admin API tokens")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	for _, key := range []string{"mode", "addr", "port", "data", "driver", "dsn", "secret", "log-level"} {
		if err := viper.BindPFlag(key, flags.Lookup(key)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("wabot")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(serveCmd, newModelsCmd(), newTokenCmd())
}

// loadProfile builds and validates the profile from flags and environment.
func loadProfile() (*profile.Profile, error) {
	p := &profile.Profile{
		Mode:   viper.GetString("mode"),
		Addr:   viper.GetString("addr"),
		Port:   viper.GetInt("port"),
		Data:   viper.GetString("data"),
		Driver: viper.GetString("driver"),
		DSN:    viper.GetString("dsn"),
		Secret: viper.GetString("secret"),
	}
	p.FromEnv()
	p.Version = version.GetCurrentVersion(p.Mode)
	if err := p.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid profile")
	}
	return p, nil
}

// openStore connects to the database and applies pending migrations.
func openStore(ctx context.Context, p *profile.Profile) (*store.Store, error) {
	dbDriver, err := db.NewDBDriver(p)
	if err != nil {
		return nil, err
	}
	storeInstance := store.New(dbDriver, p)
	if err := storeInstance.Migrate(ctx); err != nil {
		storeInstance.Close()
		return nil, errors.Wrap(err, "failed to migrate")
	}
	return storeInstance, nil
}

func runServe(ctx context.Context) error {
	p, err := loadProfile()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	storeInstance, err := openStore(ctx, p)
	if err != nil {
		return err
	}

	s, err := server.NewServer(ctx, p, storeInstance)
	if err != nil {
		storeInstance.Close()
		return errors.Wrap(err, "failed to create server")
	}

	printGreetings(p)

	if err := s.Start(ctx); err != nil {
		s.Shutdown(context.Background())
		return errors.Wrap(err, "failed to start server")
	}

	<-ctx.Done()
	s.Shutdown(context.Background())
	return nil
}

func setupLogger() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log-level"))); err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if viper.GetString("mode") == "prod" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

func printGreetings(p *profile.Profile) {
	fmt.Printf("wabot %s started successfully!\n", p.Version)
	fmt.Printf("Data directory: %s\n", p.Data)
	fmt.Printf("Database driver: %s\n", p.Driver)
	fmt.Printf("Mode: %s\n", p.Mode)
	fmt.Printf("AI processor: %s\n", p.AIProcessor)
	if p.Addr == "" {
		fmt.Printf("Webhook: http://localhost:%d/webhook\n", p.Port)
	} else {
		fmt.Printf("Webhook: http://%s:%d/webhook\n", p.Addr, p.Port)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
