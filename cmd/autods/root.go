package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/autods/autods/internal/agent"
	"github.com/autods/autods/internal/catalog"
	"github.com/autods/autods/internal/config"
	"github.com/autods/autods/internal/executor"
	"github.com/autods/autods/internal/vectorstore"
)

const version = "0.1.0"

type cliOptions struct {
	configPath string
	logLevel   string
	cfg        *config.Config
	logger     *slog.Logger
}

func newRootCommand() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:           "autods",
		Short:         "AutoDS resolves data-science tasks to catalog functions and runs them",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelInfo
			if err := level.UnmarshalText([]byte(opts.logLevel)); err != nil {
				return fmt.Errorf("invalid log level %q: %w", opts.logLevel, err)
			}
			opts.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to autods.yaml (default: ./autods.yaml if present)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newShellCmd(opts),
		newQueryCmd(opts),
		newIndexCmd(opts),
		newCatalogCmd(opts),
		newServeCmd(opts),
	)
	return root
}

func (o *cliOptions) openCatalog() (*catalog.BoltStore, error) {
	return catalog.OpenBoltStore(o.cfg.CatalogPath, o.logger)
}

// newProvider constructs the configured embedding provider. A missing
// OpenAI credential is fatal here, before any partial operation.
func (o *cliOptions) newProvider(ctx context.Context) (vectorstore.EmbeddingProvider, error) {
	switch o.cfg.Embedding.Provider {
	case "local":
		return vectorstore.NewLocalProvider(o.cfg.Embedding.LocalDimension), nil
	default:
		return vectorstore.NewOpenAIProvider(ctx, o.cfg.Embedding.Model, o.cfg.Embedding.BaseURL, o.logger)
	}
}

// newAgent assembles the resolution pipeline: catalog store, persisted
// vector index (optional — override rules still work without one), and
// one executor per runtime.
func (o *cliOptions) newAgent(ctx context.Context, store catalog.Store) (*agent.Agent, error) {
	provider, err := o.newProvider(ctx)
	if err != nil {
		return nil, err
	}

	var searcher agent.Searcher
	index, err := vectorstore.LoadIndex(o.cfg.IndexDir, provider, o.logger)
	if err != nil {
		o.logger.Warn("Vector index unavailable, resolution limited to override rules", "error", err)
	} else {
		searcher = index
	}

	var runner executor.Runner
	rscript, err := executor.NewRscriptRunner(o.cfg.Runtime.RscriptBinary, o.logger)
	if err != nil {
		o.logger.Warn("R runtime not found, R calls will report import failures", "error", err)
		runner = executor.NewUnavailableRunner(err)
	} else {
		runner = rscript
	}

	executors := map[catalog.Language]executor.Executor{
		catalog.LanguageGo: executor.NewGoExecutor(o.logger),
		catalog.LanguageR:  executor.NewRExecutor(runner, o.logger),
	}

	resolver := agent.NewResolver(store, searcher, agent.DefaultOverrides(), o.logger)
	return agent.NewAgent(resolver, executors, o.logger), nil
}
