package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/movierec/internal/domain/recommendation"
	logpkg "github.com/kailas-cloud/movierec/internal/logger"
)

func recommendCmd() *cobra.Command {
	var (
		title          string
		from, to       int
		includeUnknown bool
		unfiltered     bool
		limit, window  int
	)

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Print recommendations for a title",
		Long: `Load the catalog and similarity partitions, then print up to --limit
neighbours of --title released between --from and --to (inclusive).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(envName)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := logpkg.ContextWithLogger(cmd.Context(), a.logger)
			if err := a.openRecommender(ctx); err != nil {
				return err
			}

			var set recommendation.Set
			if unfiltered {
				set, err = a.recommend.RecommendUnfiltered(ctx, title, limit)
			} else {
				years, yerr := recommendation.NewYearRange(from, to, includeUnknown)
				if yerr != nil {
					return yerr
				}
				set, err = a.recommend.Recommend(ctx, title, years, limit, window)
			}
			if err != nil {
				return err
			}
			return printSet(cmd.OutOrStdout(), title, set)
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "title to find neighbours for")
	cmd.Flags().IntVar(&from, "from", 2000, "first release year (inclusive)")
	cmd.Flags().IntVar(&to, "to", 2025, "last release year (inclusive)")
	cmd.Flags().BoolVar(&includeUnknown, "include-unknown", false, "accept items with unknown release year")
	cmd.Flags().BoolVar(&unfiltered, "unfiltered", false, "ignore the year filter")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum results (default from config)")
	cmd.Flags().IntVar(&window, "window", 0, "ranked candidates to inspect (default from config)")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func printSet(w io.Writer, title string, set recommendation.Set) error {
	switch set.Status {
	case recommendation.StatusItemNotFound:
		_, err := fmt.Fprintf(w, "%q is not in the catalog\n", title)
		return err
	case recommendation.StatusNoMatches:
		_, err := fmt.Fprintf(w, "No movies similar to %q in range (scanned %d). Try widening the filter.\n",
			title, set.Scanned)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTITLE\tYEAR\tMATCH\tGENRES")
	for i, r := range set.Results {
		year := "?"
		if r.Enriched && r.Enrichment.HasYear() {
			year = fmt.Sprint(r.Enrichment.Year)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.1f%%\t%s\n", i+1, r.Title, year, r.Score*100, r.Enrichment.Genres)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	_, err := fmt.Fprintf(w, "\n%d results, %d candidates scanned in %s\n", set.Len(), set.Scanned, set.Took)
	return err
}
