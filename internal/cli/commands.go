package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/colthorp/ge-inspector-go/internal/item"
	"github.com/colthorp/ge-inspector-go/internal/output"
	"github.com/colthorp/ge-inspector-go/internal/query"
)

// Options of the random and history commands
var (
	terse       bool
	showHistory bool
	historyDays int
	forceUpdate bool
)

func init() {
	rootCmd.AddCommand(randomCmd)
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)

	randomCmd.Flags().BoolVarP(&terse, "terse", "t", false, "Print the item in a format that is easier to parse with other programs")
	randomCmd.Flags().BoolVar(&showHistory, "history", false, "Print the price history of the item")
	randomCmd.Flags().IntVar(&historyDays, "days", 0, "Days of price history to show (0 = fit the terminal)")

	updateCmd.Flags().BoolVarP(&forceUpdate, "force", "f", false, "Ignore the update cooldown")

	historyCmd.Flags().BoolVarP(&terse, "terse", "t", false, "Print in a format that is easier to parse with other programs")
	historyCmd.Flags().IntVar(&historyDays, "days", 0, "Days of price history to show (0 = fit the terminal)")
}

// randomCmd picks a random item from the query results
var randomCmd = &cobra.Command{
	Use:   "random",
	Short: "Pick a random item from the query results",
	Args:  cobra.NoArgs,
	RunE:  handleRandom,
}

// categoriesCmd lists the item categories
var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List all of the item categories",
	Args:  cobra.NoArgs,
	RunE:  handleCategories,
}

// updateCmd refreshes the item database
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update the item database from the bulk price feeds",
	Args:  cobra.NoArgs,
	RunE:  handleUpdate,
}

// historyCmd prints the price history of one item
var historyCmd = &cobra.Command{
	Use:   "history [item name]",
	Short: "Show the price history of an item",
	Args:  cobra.MinimumNArgs(1),
	RunE:  handleHistory,
}

// mcpCmd starts the MCP server
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for AI integration",
	Args:  cobra.NoArgs,
	RunE:  handleMCP,
}

// runQuery prints the results of the query described by f.
func (a *app) runQuery(ctx context.Context, w io.Writer, f *queryFlags, fuzzChanged bool) error {
	req, err := f.request(a.cfg.FuzzFactor, fuzzChanged)
	if err != nil {
		return err
	}
	members, err := f.members()
	if err != nil {
		return err
	}

	items, err := a.service.Run(ctx, req)
	if err != nil {
		return err
	}
	if f.member {
		if err := a.service.ResolveMembers(ctx, items); err != nil {
			return err
		}
	}
	items = query.FilterMembers(items, members)

	if f.json {
		return output.WriteItemsJSON(w, items)
	}

	p, err := a.printer(w, f)
	if err != nil {
		return err
	}
	p.Table(items, output.TableOptions{Index: f.index, NoHeader: f.noHeader})
	if f.count {
		p.Count(len(items))
	}
	return nil
}

// runRandom prints one random item from the query results.
func (a *app) runRandom(ctx context.Context, w io.Writer, f *queryFlags, fuzzChanged bool) error {
	req, err := f.request(a.cfg.FuzzFactor, fuzzChanged)
	if err != nil {
		return err
	}
	members, err := f.members()
	if err != nil {
		return err
	}

	items, err := a.service.Run(ctx, req)
	if err != nil {
		return err
	}

	it, err := a.service.Pick(ctx, items, members, nil)
	switch {
	case errors.Is(err, query.ErrPickExhausted):
		a.logger.Warn(err.Error())
	case err != nil:
		return err
	}

	if it.Members == item.Unknown && f.member {
		if _, err := a.service.Resolve(ctx, &it); err != nil {
			return err
		}
	}

	return a.showItem(ctx, w, f, it, showHistory)
}

// showItem prints the info block of it, optionally followed by its price
// history.
func (a *app) showItem(ctx context.Context, w io.Writer, f *queryFlags, it item.Item, withHistory bool) error {
	var prices []int64
	if withHistory {
		var err error
		if prices, err = a.store.PriceHistory(ctx, &it, graphDays()); err != nil {
			return err
		}
	}

	if f.json {
		view := struct {
			item.Item
			History *output.HistoryStats `json:"history,omitempty"`
		}{Item: it}
		if stats, ok := output.Summarize(prices); ok {
			view.History = &stats
			view.PriceHistory = prices
		}
		return output.WriteJSON(w, view)
	}

	p, err := a.printer(w, f)
	if err != nil {
		return err
	}
	p.Info(it, terse)
	if withHistory {
		p.History(prices, terse)
	}
	return nil
}

// graphDays is the number of days of price history to show: --days, or
// what fits half the terminal width.
func graphDays() int {
	if historyDays > 0 {
		return historyDays
	}
	width, _, err := term.GetSize(os.Stdout.Fd())
	if err != nil {
		width = defaultTermWidth
	}
	return daysForWidth(width)
}

const defaultTermWidth = 80

func daysForWidth(width int) int {
	return max(width/2-2, 1)
}

// findItem looks up an item by its exact name, ignoring case.
func (a *app) findItem(ctx context.Context, name string) (item.Item, error) {
	items, err := a.store.Load(ctx)
	if err != nil {
		return item.Item{}, err
	}
	for _, it := range items {
		if strings.EqualFold(it.Name, name) {
			return it, nil
		}
	}
	return item.Item{}, fmt.Errorf("no item named %q", name)
}

func handleRandom(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	if err := a.refresh(cmd.Context()); err != nil {
		return err
	}
	return a.runRandom(cmd.Context(), cmd.OutOrStdout(), qf, cmd.Flags().Changed("fuzz"))
}

func handleCategories(cmd *cobra.Command, args []string) error {
	p, err := output.NewPrinter(cmd.OutOrStdout(), color)
	if err != nil {
		return err
	}
	p.Categories()
	return nil
}

func handleUpdate(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	if forceUpdate {
		if err := a.store.ClearCooldown(); err != nil {
			return err
		}
	}
	return a.update(cmd.Context())
}

func handleHistory(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	if err := a.refresh(cmd.Context()); err != nil {
		return err
	}
	it, err := a.findItem(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	return a.showItem(cmd.Context(), cmd.OutOrStdout(), qf, it, true)
}

func handleMCP(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	return a.serveMCP(cmd.Context(), os.Stdin, cmd.OutOrStdout())
}
