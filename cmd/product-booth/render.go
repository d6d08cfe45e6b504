package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/menta2k/product-booth/internal/utils"
	"github.com/menta2k/product-booth/pkg/analysis"
	"github.com/menta2k/product-booth/pkg/types"
)

// printPhoto writes a one-photo summary: position, filename, size, and the
// analysis state with its details.
func printPhoto(w io.Writer, pos int, p types.Photo) {
	fmt.Fprintf(w, "[%d] %s  %dx%d  %s\n", pos, p.Filename, p.Width, p.Height,
		utils.FormatFileSize(int64(p.Size())))

	switch p.Status {
	case types.StatusPending:
		fmt.Fprintln(w, "    analyzing...")
	case types.StatusFailed:
		fmt.Fprintf(w, "    %s\n", analysis.Message(p.AnalysisErr))
	case types.StatusDone:
		printResult(w, "    ", p.Analysis)
	}
}

func printResult(w io.Writer, indent string, r *types.AnalysisResult) {
	if r == nil {
		return
	}
	fmt.Fprintf(w, "%s%s\n", indent, r.Title)
	for _, f := range r.Details.Fields() {
		fmt.Fprintf(w, "%s  %-10s %s\n", indent, f.Label+":", f.Value)
	}
}

func printSession(w io.Writer, photos []types.Photo) {
	if len(photos) == 0 {
		fmt.Fprintln(w, "no photos")
		return
	}
	for i, p := range photos {
		printPhoto(w, i+1, p)
	}
}

func joinTitles(titles []string) string {
	return strings.Join(titles, "\n")
}
