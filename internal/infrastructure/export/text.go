// Package export renders the favorites list into a downloadable document.
package export

import (
	"bufio"
	"fmt"
	"io"
)

// FavoritesHeading is the first line of every exported document
const FavoritesHeading = "My Favorite Recipes"

// TextExporter writes favorites as a plain-text list
type TextExporter struct{}

// NewTextExporter creates a plain-text exporter
func NewTextExporter() *TextExporter {
	return &TextExporter{}
}

// ContentType returns the MIME type of the produced document
func (e *TextExporter) ContentType() string {
	return "text/plain; charset=utf-8"
}

// FileName returns the suggested download name
func (e *TextExporter) FileName() string {
	return "favorites.txt"
}

// Export writes the heading followed by one "- title" line per favorite, in order
func (e *TextExporter) Export(w io.Writer, titles []string) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, "%s\n\n", FavoritesHeading); err != nil {
		return err
	}
	for _, title := range titles {
		if _, err := fmt.Fprintf(bw, "- %s\n", title); err != nil {
			return err
		}
	}

	return bw.Flush()
}
