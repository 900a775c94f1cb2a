package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/insights-cli/internal/store"
)

var brandsCmd = &cobra.Command{
	Use:   "brands",
	Short: "Inspect extracted brands",
}

var brandsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List extracted brands",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st == nil {
			return eris.New("brands list requires a configured store")
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		brands, err := st.ListBrands(ctx, limit, offset)
		if err != nil {
			return eris.Wrap(err, "brands list")
		}

		if len(brands) == 0 {
			fmt.Fprintln(os.Stderr, "No brands found.")
			return nil
		}

		formatBrandsList(os.Stdout, brands)
		return nil
	},
}

var brandsShowCmd = &cobra.Command{
	Use:   "show <store-url>",
	Short: "Show the stored insights for one brand",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st == nil {
			return eris.New("brands show requires a configured store")
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		ins, err := st.GetInsights(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "brands show")
		}
		if ins == nil {
			return eris.Errorf("no insights stored for %s", args[0])
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ins)
	},
}

func formatBrandsList(w io.Writer, brands []store.BrandSummary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "URL\tBRAND\tPRODUCTS\tSUCCESS\tUPDATED")
	for _, b := range brands {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%t\t%s\n",
			b.WebsiteURL, b.BrandName, b.TotalProducts, b.ExtractionSuccess,
			b.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = tw.Flush()
}

func init() {
	brandsListCmd.Flags().Int("limit", 50, "max brands to list")
	brandsListCmd.Flags().Int("offset", 0, "pagination offset")
	brandsCmd.AddCommand(brandsListCmd, brandsShowCmd)
	rootCmd.AddCommand(brandsCmd)
}
