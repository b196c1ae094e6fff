// Package cli wires the services into the mhp-content command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mhp-content/config"
	"mhp-content/internal/logger"
	"mhp-content/internal/service"
	"mhp-content/internal/store"
)

var (
	errInvalidArticles = errors.New("invalid articles found")
	errFailedItems     = errors.New("some items failed")
)

// app carries what every command needs once flags are parsed.
type app struct {
	configPath string
	logMode    string

	cfg *config.Config
	log *logger.Logger
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("✗ "+err.Error()))
	}
	return err
}

func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "mhp-content",
		Short:         "Generate, validate and publish mental-health articles",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				a.log.Sync()
			}
		},
	}

	// Global flags
	root.PersistentFlags().StringVar(&a.configPath, "config", "config.yaml", "Path to the config file")
	root.PersistentFlags().StringVar(&a.logMode, "log-mode", "", "Log mode (dev, prod); overrides the config file")

	root.AddCommand(
		a.generateCommand(),
		a.generateMultipleCommand(),
		a.generateRiskFactorsCommand(),
		a.validateCommand(),
		a.uploadCommand(),
		a.migrateCommand(),
		a.scoreReliabilityCommand(),
		a.backfillEmbeddingsCommand(),
		a.searchCommand(),
		a.updateContentCommand(),
		a.updateSummariesCommand(),
		a.verifyCommand(),
		a.serveCommand(),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logMode != "" {
		cfg.Log.Mode = a.logMode
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.cfg, a.log = cfg, log
	return nil
}

func (a *app) llm() (*service.LLMService, error) {
	if err := a.cfg.RequireLLM(); err != nil {
		return nil, err
	}
	return service.NewLLMService(a.cfg.LLM, a.log), nil
}

// openStore opens and migrates the configured store. Callers close it.
func (a *app) openStore(ctx context.Context) (store.ArticleStore, error) {
	if err := a.cfg.RequireStore(); err != nil {
		return nil, err
	}
	s, err := store.Open(ctx, a.cfg.Database, a.log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return s, nil
}

func (a *app) embeddingService(s store.ArticleStore, llm *service.LLMService) *service.EmbeddingService {
	return service.NewEmbeddingService(s, llm, a.cfg.Embeddings, a.log)
}

func reportErr(r *service.Report) error {
	if r.Failed() > 0 {
		return fmt.Errorf("%w: %d of %d", errFailedItems, r.Failed(), r.Total)
	}
	return nil
}
