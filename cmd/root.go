package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"opentrends/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	offline bool
	appCfg  config.Config
)

// rootCmd is the base command called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "opentrends",
	Short: "Rank trending catalog products by votes, growth and velocity",
	Long: `opentrends fetches trending products from the Product Hunt catalog, keeps
per-mode snapshots and ranks items by total votes, vote growth or votes per hour.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "use the mock catalog and in-memory snapshots")
}

// envBindings maps config keys to extra environment variables consulted after
// the OPENTRENDS_ prefixed name.
var envBindings = map[string][]string{
	"catalog.token":          {"PRODUCT_HUNT_DEVELOPER_TOKEN", "VITE_PRODUCT_HUNT_TOKEN"},
	"openai.api_key":         {"OPENAI_API_KEY", "VITE_OPENAI_API_KEY"},
	"bookmarks.database_url": {"DATABASE_URL"},
	"redis.addr":             {"REDIS_ADDR"},
	"redis.password":         {"REDIS_PASSWORD"},
}

// prefixedKeys are read from OPENTRENDS_<SECTION>_<KEY> when not set in the file.
var prefixedKeys = []string{
	"app.log_level", "app.prefs_path",
	"redis.username", "redis.db",
	"catalog.mode", "catalog.endpoint", "catalog.page_size", "catalog.limit", "catalog.timeout", "catalog.requests_per_min",
	"openai.model", "openai.base_url", "openai.max_tokens",
	"snapshots.backend", "snapshots.sqlite_path", "snapshots.stale_after", "snapshots.redis_ttl",
	"bookmarks.driver",
	"server.addr", "server.refresh_interval", "server.feed_size",
	"digest.output_dir", "digest.title", "digest.top_n", "digest.interval",
}

func initConfig() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "error reading .env: %v\n", err)
	}

	v := viper.GetViper()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/opentrends")
		v.AddConfigPath("configs")
	}

	v.SetEnvPrefix("OPENTRENDS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range prefixedKeys {
		_ = v.BindEnv(key)
	}
	for key, extra := range envBindings {
		names := append([]string{"OPENTRENDS_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, extra...)
		_ = v.BindEnv(append([]string{key}, names...)...)
	}

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			fmt.Fprintf(os.Stderr, "error reading config: %v\n", err)
			os.Exit(1)
		}
	} else {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", v.ConfigFileUsed())
	}

	if err := v.Unmarshal(&appCfg); err != nil {
		fmt.Fprintf(os.Stderr, "error parsing config: %v\n", err)
		os.Exit(1)
	}

	if offline {
		appCfg.Catalog.Mode = "mock"
		appCfg.Snapshots.Backend = "memory"
	}
	appCfg.FillDefaults()
	if err := appCfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}
	setupLogging(appCfg.App.LogLevel)
}

func setupLogging(level string) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}

// GetConfig exposes the loaded configuration to subcommands.
func GetConfig() config.Config {
	return appCfg
}
