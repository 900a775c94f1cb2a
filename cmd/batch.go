package main

import (
	"bufio"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	batchConcurrency int
	batchLimit       int
	batchNoSave      bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <url-file>",
	Short: "Extract insights for every storefront listed in a file",
	Long:  "Reads one storefront URL per line (blank lines and # comments are skipped) and extracts them concurrently.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		urls, err := readURLFile(args[0])
		if err != nil {
			return err
		}
		if batchLimit > 0 && len(urls) > batchLimit {
			urls = urls[:batchLimit]
		}
		if len(urls) == 0 {
			zap.L().Info("no urls to process")
			return nil
		}

		env, err := initPipeline(ctx, batchNoSave, nil)
		if err != nil {
			return err
		}
		defer env.Close()

		zap.L().Info("processing batch",
			zap.Int("stores", len(urls)),
			zap.Int("concurrency", batchConcurrency),
		)

		start := time.Now()
		var succeeded, failed atomic.Int64

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(batchConcurrency)
		for _, rawURL := range urls {
			g.Go(func() error {
				res, _ := env.Pipeline.ExtractInsights(gctx, rawURL)
				if !res.IsUsable() || runFailed(res.Data) {
					failed.Add(1)
					zap.L().Warn("batch: store failed",
						zap.String("store", rawURL),
						zap.String("error", res.ErrorMessage),
					)
					return nil
				}
				succeeded.Add(1)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return eris.Wrap(err, "batch run")
		}

		zap.L().Info("batch complete",
			zap.Int64("succeeded", succeeded.Load()),
			zap.Int64("failed", failed.Load()),
			zap.Duration("elapsed", time.Since(start)),
		)
		return nil
	},
}

func init() {
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 3, "stores processed in parallel")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of urls to process (0 = all)")
	batchCmd.Flags().BoolVar(&batchNoSave, "no-save", false, "skip persisting results")
	rootCmd.AddCommand(batchCmd)
}

// readURLFile parses one URL per line, skipping blanks and # comments.
func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open url file %s", path)
	}
	defer f.Close() //nolint:errcheck

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrapf(err, "read url file %s", path)
	}
	return urls, nil
}
