package cmd

import (
	"context"
	"fmt"

	"keuzecompass/internal/domain/vkm"
	"keuzecompass/internal/pkg/api"
	vkmservice "keuzecompass/internal/service/vkm"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// filterFlags binds the listing filters shared by student and admin lists.
type filterFlags struct {
	location string
	level    string
	credits  string
	active   string
	search   string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.location, "location", "", `location, e.g. "Breda" or "Den Bosch"`)
	cmd.Flags().StringVar(&f.level, "level", "", "NLQF5 or NLQF6")
	cmd.Flags().StringVar(&f.credits, "credits", "", "study credits: 15 or 30")
	cmd.Flags().StringVar(&f.active, "active", "", "true or false")
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "match name and descriptions")
}

func (f *filterFlags) filters() (vkm.Filters, error) {
	out := vkm.Filters{Search: f.search}

	if f.location != "" {
		loc := vkm.Location(f.location)
		if !loc.Valid() {
			return out, fmt.Errorf("unknown location %q", f.location)
		}
		out.Location = loc
	}
	if f.level != "" {
		lvl := vkm.Level(f.level)
		if !lvl.Valid() {
			return out, fmt.Errorf("unknown level %q: want NLQF5 or NLQF6", f.level)
		}
		out.Level = lvl
	}
	if f.credits != "" {
		sc, err := vkm.ParseStudyCredit(f.credits)
		if err != nil {
			return out, err
		}
		out.StudyCredit = &sc
	}
	if f.active != "" {
		active, err := parseBool(f.active)
		if err != nil {
			return out, err
		}
		out.IsActive = &active
	}
	return out, nil
}

func newModulesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "modules",
		Aliases: []string{"vkm"},
		Short:   "Browse modules",
	}
	cmd.AddCommand(newModulesListCmd(c), newModulesShowCmd(c))
	return cmd
}

func newModulesListCmd(c *cli) *cobra.Command {
	var ff filterFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireAuth(); err != nil {
				return err
			}
			filters, err := ff.filters()
			if err != nil {
				return err
			}

			modules, current, err := api.Fetch(cmd.Context(), c.app.Latest, "modules", func(ctx context.Context) ([]vkm.Module, error) {
				return c.app.VKMService.List(ctx, filters)
			})
			if err != nil {
				return c.fail(cmd.Context(), err)
			}
			if !current {
				return nil
			}
			return c.printModules(cmd, modules)
		},
	}
	ff.register(cmd)
	return cmd
}

func newModulesShowCmd(c *cli) *cobra.Command {
	var related int

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireAuth(); err != nil {
				return err
			}
			ctx := cmd.Context()

			module, err := c.app.VKMService.Get(ctx, args[0])
			if err != nil {
				return c.fail(ctx, err)
			}
			if c.asJSON {
				return printJSON(cmd.OutOrStdout(), module)
			}
			printModule(cmd.OutOrStdout(), module)

			if related <= 0 {
				return nil
			}
			recs, err := c.app.VKMService.Recommendations(ctx, 0)
			if api.IsCanceled(err) {
				return err
			}
			if err != nil {
				// Recommendations are optional on the detail view.
				c.app.Logger.Debug("recommendations unavailable", zap.Error(err))
				return nil
			}
			if recs = vkmservice.Related(recs, module.ID, related); len(recs) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "\nMisschien ook interessant:")
				printModuleTable(cmd.OutOrStdout(), recs)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&related, "related", 4, "number of related modules to show (0 to hide)")
	return cmd
}

func newFavoritesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "Manage favorite modules",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List your favorite modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireAuth(); err != nil {
				return err
			}
			modules, err := c.app.VKMService.Favorites(cmd.Context())
			if err != nil {
				return c.fail(cmd.Context(), err)
			}
			return c.printModules(cmd, modules)
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Add or remove a module from your favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireAuth(); err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := c.app.VKMService.ToggleFavorite(ctx, args[0]); err != nil {
				return c.fail(ctx, err)
			}

			module, err := c.app.VKMService.Get(ctx, args[0])
			if err != nil {
				return c.fail(ctx, err)
			}
			if module.IsFavorited {
				fmt.Fprintf(cmd.OutOrStdout(), "%s toegevoegd aan favorieten.\n", module.Name)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s verwijderd uit favorieten.\n", module.Name)
			}
			return nil
		},
	}

	cmd.AddCommand(list, toggle)
	return cmd
}

func newRecommendationsCmd(c *cli) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "recommendations",
		Aliases: []string{"recs"},
		Short:   "Show modules recommended for you",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireAuth(); err != nil {
				return err
			}
			modules, err := c.app.VKMService.Recommendations(cmd.Context(), limit)
			if err != nil {
				return c.fail(cmd.Context(), err)
			}
			return c.printModules(cmd, modules)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", vkmservice.DefaultRecommendationLimit, "maximum number of recommendations")
	return cmd
}

func (c *cli) printModules(cmd *cobra.Command, modules []vkm.Module) error {
	if c.asJSON {
		return printJSON(cmd.OutOrStdout(), modules)
	}
	if len(modules) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Geen modules gevonden.")
		return nil
	}
	printModuleTable(cmd.OutOrStdout(), modules)
	return nil
}
