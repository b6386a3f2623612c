// Command grocery is the terminal companion to the API server: build a
// grocery list from stored recipes and run the cart agent without the UI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"groceryagent/internal/cart"
	"groceryagent/internal/config"
	"groceryagent/internal/grocery"
	"groceryagent/internal/platform/gemini"
	"groceryagent/internal/platform/localllm"
	"groceryagent/internal/recipe"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "grocery",
		Short:         "Build grocery lists from saved recipes and send them to the cart agent",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newListCmd(), newCartCmd())
	return root
}

func newListCmd() *cobra.Command {
	var (
		portionFlags []string
		selected     []int
		outPath      string
	)

	cmd := &cobra.Command{
		Use:   "list <recipe-id>...",
		Short: "Aggregate recipes into a grocery list and print it as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid recipe id %q", arg)
				}
				ids = append(ids, id)
			}

			portions, err := parsePortions(portionFlags)
			if err != nil {
				return err
			}

			store, err := recipe.NewSQLiteStore(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open recipe store: %w", err)
			}
			defer store.Close()

			// Static normalization keeps the CLI offline and free.
			builder := grocery.NewBuilder(store, nil, nil)
			items, err := builder.Build(cmd.Context(), grocery.Request{
				RecipeIDs: ids,
				Portions:  portions,
				Selected:  selected,
			})
			if err != nil {
				return err
			}

			if outPath != "" {
				if err := grocery.WriteListFile(outPath, items); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d items to %s\n", len(items), outPath)
				return nil
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string][]grocery.Item{"items": items})
		},
	}

	cmd.Flags().StringArrayVar(&portionFlags, "portions", nil, "portion override per recipe, as id=count (repeatable)")
	cmd.Flags().IntSliceVar(&selected, "selected", nil, "keep only these ingredient positions from the flattened list")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the list to this JSON file instead of stdout")
	return cmd
}

func newCartCmd() *cobra.Command {
	var listPath string

	cmd := &cobra.Command{
		Use:   "cart [recipe-id...]",
		Short: "Run the browser cart agent against a saved grocery list",
		Long: `Run the browser cart agent. Without arguments the saved grocery list file is
used; with recipe ids a fresh list is built and written first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if listPath == "" {
				listPath = cfg.ListPath
			}

			var items []grocery.Item
			var err error
			if len(args) > 0 {
				items, err = buildList(cmd.Context(), cfg, args)
				if err != nil {
					return err
				}
				if err := grocery.WriteListFile(listPath, items); err != nil {
					return err
				}
			} else {
				items, err = grocery.LoadListFile(listPath)
				if err != nil {
					return err
				}
			}
			if len(items) == 0 {
				return fmt.Errorf("no grocery list at %s, run 'grocery list --out %s' first", listPath, listPath)
			}

			log, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			defer log.Sync()

			var llm cart.LLM
			switch cfg.Provider() {
			case config.ProviderGemini:
				llm, err = gemini.NewClient(cmd.Context(), cfg.GoogleAPIKey, cfg.GeminiModel)
				if err != nil {
					return fmt.Errorf("create gemini client: %w", err)
				}
			case config.ProviderLocal:
				llm = localllm.NewClient(cfg.LocalLLMURL, cfg.LocalLLMModel)
			default:
				return fmt.Errorf("no LLM configured: set GOOGLE_API_KEY or LOCAL_LLM_URL")
			}

			runner := cart.NewRunner(cart.RunnerConfig{
				Site:        cfg.StoreURL,
				Email:       cfg.StoreEmail,
				Password:    cfg.StorePassword,
				BrowserPath: cfg.BrowserPath,
				Headless:    cfg.Headless,
			}, llm, log)

			session, err := runner.Start()
			if err != nil {
				return fmt.Errorf("%w: %v", cart.ErrLaunch, err)
			}
			session.Run(context.Background(), items)
			return nil
		},
	}

	cmd.Flags().StringVarP(&listPath, "file", "f", "", "grocery list JSON file (default GROCERY_LIST_PATH)")
	return cmd
}

func buildList(ctx context.Context, cfg config.Config, args []string) ([]grocery.Item, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid recipe id %q", arg)
		}
		ids = append(ids, id)
	}

	store, err := recipe.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open recipe store: %w", err)
	}
	defer store.Close()

	builder := grocery.NewBuilder(store, nil, nil)
	return builder.Build(ctx, grocery.Request{RecipeIDs: ids})
}

func parsePortions(flags []string) (map[int64]int, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	portions := make(map[int64]int, len(flags))
	for _, f := range flags {
		id, count, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --portions value %q, want id=count", f)
		}
		recipeID, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid recipe id in --portions value %q", f)
		}
		n, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil {
			return nil, fmt.Errorf("invalid count in --portions value %q", f)
		}
		portions[recipeID] = n
	}
	return portions, nil
}
