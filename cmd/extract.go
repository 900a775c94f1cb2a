package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/insights-cli/internal/model"
)

var extractNoSave bool

var extractCmd = &cobra.Command{
	Use:   "extract <store-url>",
	Short: "Extract brand insights from a single storefront",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx, extractNoSave, nil)
		if err != nil {
			return err
		}
		defer env.Close()

		res, summary := env.Pipeline.ExtractInsights(ctx, args[0])
		if !res.IsUsable() {
			return eris.Errorf("extraction failed (%s): %s", res.Status, res.ErrorMessage)
		}

		ins := res.Data
		zap.L().Info("extraction complete",
			zap.String("store", ins.WebsiteURL),
			zap.Bool("success", ins.ExtractionSuccess),
			zap.Int("products", ins.TotalProductsFound),
			zap.Float64("success_rate", summary.SuccessRate),
			zap.Duration("elapsed", summary.Elapsed),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ins)
	},
}

func init() {
	extractCmd.Flags().BoolVar(&extractNoSave, "no-save", false, "skip persisting the result")
	rootCmd.AddCommand(extractCmd)
}

// exit status helper shared with batch: a run counts as failed when the
// record itself reports no usable signals.
func runFailed(ins *model.BrandInsights) bool {
	return ins == nil || !ins.ExtractionSuccess
}
