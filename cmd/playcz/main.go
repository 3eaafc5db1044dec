// Package main provides playcz, a terminal front end for the play.cz radio
// directory.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sWski/plugin.audio.play.cz/common"
	"github.com/sWski/plugin.audio.play.cz/common/config"
	"github.com/sWski/plugin.audio.play.cz/modules/cachedcall"
	"github.com/sWski/plugin.audio.play.cz/modules/playcz"
	"github.com/sWski/plugin.audio.play.cz/modules/plugin"
)

// Version as provided by goreleaser.
var Version = ""

// app holds everything one command invocation needs.
type app struct {
	plugin *plugin.Plugin
	client playcz.PlayClient
	store  common.CacheRepository
	disk   *common.DiskStore
	logger *log.Logger
}

func (a *app) Close() error {
	stats := a.client.Stats()
	a.logger.Debug("Client stats", "calls", stats.TotalCalls, "ok", stats.SuccessCount, "failed", stats.FailCount)
	if a.disk != nil {
		return a.disk.Close()
	}
	return nil
}

func (a *app) clearCache() error {
	c, ok := a.store.(interface{ Clear() error })
	if !ok {
		return errors.New("cache store cannot be cleared")
	}
	return c.Clear()
}

// overlay applies values from the config file and flags on top of the
// environment.
func overlay(cfg config.Config, v *viper.Viper) (config.Config, error) {
	if s := v.GetString("api_url"); s != "" {
		cfg.BaseURL = s
	}
	if s := v.GetString("user_agent"); s != "" {
		cfg.UserAgent = s
	}
	if s := v.GetString("cache_dir"); s != "" {
		cfg.CacheDir = s
	}
	if v.GetBool("no_disk_cache") {
		cfg.NoDiskCache = true
	}
	if s := v.GetString("lang"); s != "" {
		cfg.Language = s
	}
	if s := v.GetString("log_level"); s != "" {
		cfg.LogLevel = s
	}
	if v.GetBool("debug") {
		cfg.LogLevel = "debug"
	}
	return cfg, cfg.Validate()
}

func ttlConfig(t config.TTLs) playcz.TTLConfig {
	return playcz.TTLConfig{
		Stations:    t.Stations,
		TopStations: t.TopStations,
		Genres:      t.Genres,
		Regions:     t.Regions,
		Streams:     t.Streams,
		StreamURL:   t.StreamURL,
	}
}

func newApp(cfg config.Config, format string, stdout, stderr io.Writer) (*app, error) {
	logger := log.NewWithOptions(stderr, log.Options{Prefix: "playcz"})
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logger.SetLevel(level)

	strs, err := newLocalizer(cfg.Language)
	if err != nil {
		return nil, fmt.Errorf("unable to build string catalog: %w", err)
	}
	renderer, err := newTermRenderer(stdout, format, strs.tag)
	if err != nil {
		return nil, err
	}

	a := &app{logger: logger, store: common.NewCacheStore()}
	if !cfg.NoDiskCache {
		a.disk, err = common.NewDiskStore(cfg.CacheDir, cfg.CacheCompression, logger)
		if err != nil {
			return nil, err
		}
		a.store = common.NewTieredStore(a.store, a.disk)
	}

	a.client = playcz.NewPlayClient(cfg.BaseURL, common.NewPlayHttpClient(cfg.UserAgent, nil, cfg.Timeout))
	caller := cachedcall.New(a.store, cachedcall.WithLogger(logger))
	svc := playcz.NewCachedService(playcz.NewPlayService(a.client), caller, ttlConfig(cfg.TTL))

	a.plugin, err = plugin.New(plugin.Deps{
		Service:   svc,
		Renderer:  renderer,
		Localizer: strs,
		Player:    printPlayer{w: stdout},
		Notifier:  stderrNotifier{w: stderr},
		Logger:    logger,
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func loadConfigFile(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		dirs, err := gap.NewScope(gap.User, "playcz").ConfigDirs()
		if err != nil {
			return fmt.Errorf("unable to find configuration directory: %w", err)
		}
		if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
			dirs = append([]string{filepath.Join(c, "playcz")}, dirs...)
		}
		for _, d := range dirs {
			v.AddConfigPath(d)
		}
		v.SetConfigName("playcz")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("could not parse configuration file: %w", err)
		}
	}
	return nil
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		configFile string
		a          *app
	)
	v := viper.New()

	run := func(target func(args []string) plugin.Target) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			defer func() { _ = a.Close() }()
			return a.plugin.Dispatch(cmd.Context(), target(args))
		}
	}

	rootCmd := &cobra.Command{
		Use:           "playcz",
		Short:         "Browse and play Czech internet radio from play.cz",
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfigFile(v, configFile); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg, err = overlay(cfg, v); err != nil {
				return err
			}
			a, err = newApp(cfg, v.GetString("output"), stdout, stderr)
			if err != nil {
				return err
			}
			if used := v.ConfigFileUsed(); used != "" {
				a.logger.Debug("Using configuration file", "path", used)
			}
			return nil
		},
		RunE: run(func([]string) plugin.Target {
			return plugin.Target{Route: plugin.RouteRoot}
		}),
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default is playcz.yaml in the user config directory)")
	flags.StringP("output", "o", outputText, "output format: text, json or yaml")
	flags.String("lang", "", "interface language: en or cs")
	flags.Bool("debug", false, "enable debug logging")
	flags.Bool("no-disk-cache", false, "keep the cache in memory only")
	_ = v.BindPFlag("output", flags.Lookup("output"))
	_ = v.BindPFlag("lang", flags.Lookup("lang"))
	_ = v.BindPFlag("debug", flags.Lookup("debug"))
	_ = v.BindPFlag("no_disk_cache", flags.Lookup("no-disk-cache"))
	v.SetDefault("output", outputText)

	var genre, region string
	var top25 bool
	stationsCmd := &cobra.Command{
		Use:   "stations",
		Short: "List stations, optionally filtered by genre or region",
		Args:  cobra.NoArgs,
		RunE: run(func([]string) plugin.Target {
			if top25 {
				return plugin.Target{Route: plugin.RouteTop25}
			}
			return plugin.Target{Route: plugin.RouteStations, GenreID: genre, RegionID: region}
		}),
	}
	stationsCmd.Flags().StringVar(&genre, "genre", "", "genre id (see: playcz genres)")
	stationsCmd.Flags().StringVar(&region, "region", "", "region id (see: playcz regions)")
	stationsCmd.Flags().BoolVar(&top25, "top25", false, "list the 25 most popular stations")
	stationsCmd.MarkFlagsMutuallyExclusive("top25", "genre")
	stationsCmd.MarkFlagsMutuallyExclusive("top25", "region")

	genresCmd := &cobra.Command{
		Use:   "genres",
		Short: "List genres",
		Args:  cobra.NoArgs,
		RunE: run(func([]string) plugin.Target {
			return plugin.Target{Route: plugin.RouteGenres}
		}),
	}

	regionsCmd := &cobra.Command{
		Use:   "regions",
		Short: "List regions",
		Args:  cobra.NoArgs,
		RunE: run(func([]string) plugin.Target {
			return plugin.Target{Route: plugin.RouteRegions}
		}),
	}

	streamsCmd := &cobra.Command{
		Use:   "streams STATION",
		Short: "List the streams of a station",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(args []string) plugin.Target {
			return plugin.Target{Route: plugin.RouteStreams, StationID: args[0]}
		}),
	}

	playCmd := &cobra.Command{
		Use:   "play STATION FORMAT BITRATE",
		Short: "Print the playable URL of a stream",
		Args:  cobra.ExactArgs(3),
		RunE: run(func(args []string) plugin.Target {
			return plugin.Target{Route: plugin.RoutePlay, StationID: args[0], Format: args[1], Bitrate: args[2]}
		}),
	}

	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response cache",
	}
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached response",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			defer func() { _ = a.Close() }()
			if err := a.clearCache(); err != nil {
				return err
			}
			a.logger.Info("Cache cleared")
			return nil
		},
	})

	rootCmd.AddCommand(stationsCmd, genresCmd, regionsCmd, streamsCmd, playCmd, cacheCmd)
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		// request failures have already been shown to the user
		if !common.IsRequestFailure(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(1)
	}
}
