// Command dispatchctl administers a dispatch ledger directly against its
// document store: roster, bookings, availability, CSV import and tokens.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wolfman30/arcticflow-dispatch/cmd/mainconfig"
	"github.com/wolfman30/arcticflow-dispatch/internal/app/bootstrap"
	appconfig "github.com/wolfman30/arcticflow-dispatch/internal/config"
	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// cli carries the settings shared by every subcommand.
type cli struct {
	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}
	root := &cobra.Command{
		Use:   "dispatchctl",
		Short: "ArcticFlow dispatch administration",
		Long: `dispatchctl works on the same document store as the API server.
Storage defaults to a local SQLite file so the ledger can be inspected or
bulk-loaded without a running server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("store", bootstrap.BackendSQLite, "document store backend (memory, sqlite, redis, postgres, dynamodb, s3)")
	flags.String("sqlite-path", "arcticflow.db", "sqlite database file")
	flags.String("redis-addr", "", "redis address for the redis backend")
	flags.Bool("json", false, "output JSON")
	flags.Bool("seed", false, "install demo roster and bookings into an empty store")
	flags.String("log-level", "warn", "log level")
	for _, name := range []string{"store", "sqlite-path", "redis-addr", "json", "seed", "log-level"} {
		_ = c.v.BindPFlag(name, flags.Lookup(name))
	}
	c.v.SetEnvPrefix("DISPATCHCTL")
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	root.AddCommand(
		c.availabilityCmd(),
		c.summaryCmd(),
		c.bookingsCmd(),
		c.staffCmd(),
		c.importCmd(),
		c.invoiceCmd(),
		c.seedCmd(),
		c.tokenCmd(),
	)
	return root
}

// config overlays the CLI flags on the shared environment configuration.
func (c *cli) config() *appconfig.Config {
	cfg := appconfig.Load()
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(c.v.GetString("store")))
	cfg.SQLitePath = c.v.GetString("sqlite-path")
	cfg.RedisAddr = c.v.GetString("redis-addr")
	cfg.SeedDemoData = c.v.GetBool("seed")
	return cfg
}

// withEngine opens storage, runs fn and closes everything again.
func (c *cli) withEngine(cmd *cobra.Command, fn func(ctx context.Context, e *bootstrap.Engine) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := c.config()
	logger := logging.NewWithWriter(cmd.ErrOrStderr(), c.v.GetString("log-level"))

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}
	storage, err := bootstrap.OpenStorage(ctx, cfg, awsCfg, logger)
	if err != nil {
		return err
	}
	defer storage.Close()

	engine, err := bootstrap.BuildEngine(ctx, cfg, storage.Docs, bootstrap.EngineOptions{
		Publisher: bootstrap.BuildPublisher(cfg, awsCfg, logger),
	}, logger)
	if err != nil {
		return err
	}
	return fn(ctx, engine)
}

func (c *cli) jsonOutput() bool {
	return c.v.GetBool("json")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
