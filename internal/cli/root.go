// Package cli implements the command-line interface for ge-inspector.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/colthorp/ge-inspector-go/internal/api"
	"github.com/colthorp/ge-inspector-go/internal/cache"
	"github.com/colthorp/ge-inspector-go/internal/core"
	"github.com/colthorp/ge-inspector-go/internal/enrich"
	"github.com/colthorp/ge-inspector-go/internal/output"
	"github.com/colthorp/ge-inspector-go/internal/query"
)

// Global flags
var (
	verbose bool
	quiet   bool
	update  bool
	color   string
	qf      = defaultQueryFlags()
)

// rootCmd runs a query when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "ge-inspector",
	Short: "ge-inspector – query Grand Exchange item data",
	Long: `Search the Grand Exchange items for flips and high alchemy targets.

Item data is downloaded once into a local database and refreshed with --update.`,
	Version:       core.Version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          handleQuery,
}

// Execute runs the root command and exits with status 1 on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose debug output to stderr")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only update the database, don't print any results")
	rootCmd.PersistentFlags().BoolVarP(&update, "update", "u", false, "Update the database before processing the query")
	rootCmd.PersistentFlags().StringVar(&color, "color", output.DefaultScheme, fmt.Sprintf("Color scheme of the output (%s)", joinNames(output.Schemes())))
	qf.register(rootCmd.PersistentFlags())
}

// app wires the item store, the enricher and the query service together.
type app struct {
	cfg     core.Config
	logger  *log.Logger
	store   *cache.Store
	service *query.Service
}

func newApp(cfg core.Config, logger *log.Logger, transport api.Transport, backend cache.Backend) *app {
	logger = core.OrDiscard(logger)
	geapi := api.NewGEAPI(transport, api.EndpointsFromConfig(cfg), logger)
	store := cache.NewStore(backend, geapi, cache.NewCooldown(cfg.LockPath, cfg.Cooldown), logger)
	enricher := enrich.NewEnricher(geapi, store, cfg.EnrichBatch, logger)

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		service: query.NewService(store, enricher, logger),
	}
}

// loadApp builds the app from the environment: configuration, the HTTP
// client and the on-disk store.
func loadApp() (*app, error) {
	cfg, err := core.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}
	logger := core.NewLogger(os.Stderr, verbose, quiet)
	return newApp(cfg, logger, api.NewClient(cfg, logger), cache.NewFilesystemBackendFromConfig(cfg)), nil
}

// refresh updates the store when --update was given.
func (a *app) refresh(ctx context.Context) error {
	if !update {
		return nil
	}
	return a.update(ctx)
}

func (a *app) update(ctx context.Context) error {
	res, err := a.store.Refresh(ctx)
	if err != nil {
		return err
	}
	switch {
	case res.Skipped:
		a.logger.Info("The database was updated recently, skipping the update", "cooldown", a.cfg.Cooldown)
	case res.Bootstrapped:
		a.logger.Info("Created the item database", "items", res.Total)
	default:
		a.logger.Info("Updated the item database", "updated", res.Updated, "added", res.Added, "removed", res.Removed)
	}
	return nil
}

func (a *app) printer(w io.Writer, f *queryFlags) (*output.Printer, error) {
	p, err := output.NewPrinter(w, color)
	if err != nil {
		return nil, err
	}
	p.Short = f.short
	return p, nil
}

func handleQuery(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	if err := a.refresh(cmd.Context()); err != nil {
		return err
	}
	if quiet && update {
		return nil
	}
	return a.runQuery(cmd.Context(), cmd.OutOrStdout(), qf, cmd.Flags().Changed("fuzz"))
}
