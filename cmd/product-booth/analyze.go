package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	productbooth "github.com/menta2k/product-booth"
	"github.com/menta2k/product-booth/internal/utils"
	"github.com/menta2k/product-booth/pkg/analysis"
	"github.com/menta2k/product-booth/pkg/types"
)

type fileAnalysis struct {
	File   string                `json:"file"`
	Result *types.AnalysisResult `json:"result,omitempty"`
	Error  string                `json:"error,omitempty"`
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var asJSON bool
	var concurrency int

	cmd := &cobra.Command{
		Use:   "analyze <file|dir>...",
		Short: "Draft listing titles for existing JPEG files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := expandInputs(args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no image files found")
			}

			vc, err := productbooth.NewVisionClient(a.cfg, a.apiKey(), nil)
			if err != nil {
				return err
			}
			if vc == nil {
				return productbooth.ErrAnalysisUnavailable
			}
			analyzer := productbooth.NewAnalyzer(a.cfg, vc)

			if concurrency < 1 {
				concurrency = a.cfg.Analysis.Concurrency
			}

			results := make([]fileAnalysis, len(files))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(concurrency)

			for i, file := range files {
				g.Go(func() error {
					results[i].File = file
					data, err := os.ReadFile(file)
					if err != nil {
						results[i].Error = err.Error()
						return nil
					}
					res, err := analyzer.Analyze(ctx, data)
					if err != nil {
						log.Warn().Err(err).Str("file", file).Msg("analysis failed")
						results[i].Error = analysis.Message(err)
						return nil
					}
					results[i].Result = res
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}

			failed := 0
			for _, r := range results {
				fmt.Fprintln(out, filepath.Base(r.File))
				if r.Error != "" {
					failed++
					fmt.Fprintf(out, "    %s\n", r.Error)
					continue
				}
				printResult(out, "    ", r.Result)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "j", 0, "parallel requests (default from config)")
	return cmd
}

// expandInputs replaces directories with the image files they contain
func expandInputs(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		if utils.DirExists(arg) {
			found, err := utils.ListImageFiles(arg)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
			continue
		}
		if !utils.FileExists(arg) {
			return nil, fmt.Errorf("%s: no such file", arg)
		}
		files = append(files, arg)
	}
	return files, nil
}
