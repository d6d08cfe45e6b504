package capture

import (
	"fmt"
	"strings"
	"time"
)

// FilenameStyle selects the output filename pattern
type FilenameStyle string

const (
	// StyleBasic produces ebay-<date>-<H>-<M>-<S>.jpg
	StyleBasic FilenameStyle = "basic"
	// StyleSized produces ebay-product-<date>-<H>-<M>-<S>-<size>px.jpg
	StyleSized FilenameStyle = "sized"
)

// ParseStyle parses a filename style name
func ParseStyle(s string) (FilenameStyle, error) {
	switch st := FilenameStyle(strings.ToLower(strings.TrimSpace(s))); st {
	case StyleBasic, StyleSized:
		return st, nil
	case "":
		return StyleBasic, nil
	}
	return "", fmt.Errorf("unknown filename style %q (use basic or sized)", s)
}

// Filename derives the download name for a capture taken at t. The date is
// the UTC calendar date while hour, minute and second are t's local clock
// and are not zero-padded; downstream listing tools match this form.
func Filename(t time.Time, style FilenameStyle, size int) string {
	date := t.UTC().Format("2006-01-02")
	clock := fmt.Sprintf("%d-%d-%d", t.Hour(), t.Minute(), t.Second())

	if style == StyleSized {
		return fmt.Sprintf("ebay-product-%s-%s-%dpx.jpg", date, clock, size)
	}
	return fmt.Sprintf("ebay-%s-%s.jpg", date, clock)
}
