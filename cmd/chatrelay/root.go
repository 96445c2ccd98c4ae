package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"chatrelay/internal/common/fsutil"
	"chatrelay/internal/config"
	"chatrelay/internal/httpapi"
	"chatrelay/internal/registry"
	"chatrelay/internal/relay"
	"chatrelay/internal/store"
	"chatrelay/internal/tokens"
	"chatrelay/internal/upstream"
)

// modelsTimeout bounds the upstream model-list call.
const modelsTimeout = 10 * time.Second

// splitCSV splits a comma-separated list, trimming spaces and dropping
// empty items.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "chatrelay",
		Short:         "Relay daemon for an OpenAI-compatible hosted LLM provider",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to a yaml/json/toml config file")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP relay server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(configPath)
			if err != nil {
				return err
			}
			if v, _ := cmd.Flags().GetString("addr"); v != "" {
				cfg.Addr = v
			}
			if v, _ := cmd.Flags().GetString("db"); v != "" {
				cfg.DBPath = v
			}
			return runServe(cfg)
		},
	}
	serve.Flags().String("addr", "", "HTTP listen address, e.g. :8080 (overrides env/config)")
	serve.Flags().String("db", "", "SQLite database path (overrides env/config)")
	root.AddCommand(serve)

	models := &cobra.Command{
		Use:   "models",
		Short: "Print the model catalog as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(registry.All())
		},
	}
	root.AddCommand(models)

	export := &cobra.Command{
		Use:   "export <file>",
		Short: "Write all conversations and folders to an archive file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(configPath)
			if err != nil {
				return err
			}
			st, err := openStore(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()
			archive, err := st.Export()
			if err != nil {
				return err
			}
			raw, err := json.MarshalIndent(archive, "", "  ")
			if err != nil {
				return err
			}
			return os.WriteFile(args[0], raw, 0o644)
		},
	}
	root.AddCommand(export)

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import conversations and folders from an archive file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(configPath)
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			archive, err := store.ParseArchive(raw)
			if err != nil {
				return err
			}
			st, err := openStore(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()
			nConv, nFold, err := st.Import(archive)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d conversations, %d folders\n", nConv, nFold)
			return nil
		},
	}
	root.AddCommand(importCmd)

	return root
}

// resolveConfig layers env defaults under an optional config file.
func resolveConfig(configPath string) (config.Env, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return config.Env{}, err
	}
	if configPath == "" {
		return env, nil
	}
	file, err := config.Load(configPath)
	if err != nil {
		return config.Env{}, fmt.Errorf("load config %s: %w", configPath, err)
	}
	return config.Merge(env, file), nil
}

func openStore(path string) (*store.Store, error) {
	expanded, err := fsutil.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	if err := fsutil.EnsureParentDir(expanded); err != nil {
		return nil, err
	}
	return store.Open(expanded)
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

func runServe(cfg config.Env) error {
	log := newLogger(cfg.LogLevel)

	st, err := openStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	provider := upstream.New(cfg.UpstreamHost, modelsTimeout)
	svc := relay.New(provider, tokens.Default(), st, relay.Config{
		DefaultModel: cfg.DefaultModel,
		ServerKey:    cfg.APIKey,
		SystemPrompt: cfg.SystemPrompt,
		Temperature:  &cfg.Temperature,
	}, log)

	httpapi.SetLogger(log)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	if cfg.CORSEnabled {
		httpapi.SetCORSOptions(true,
			splitCSV(cfg.CORSOrigins),
			[]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			[]string{"Accept", "Content-Type", "X-Log-Level"},
		)
	}

	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	httpapi.SetBaseContext(baseCtx)

	mux := httpapi.NewMux(svc, st)
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("upstream", cfg.UpstreamHost).Msg("chatrelay listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-stop:
	}
	cancelBase()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	return nil
}
