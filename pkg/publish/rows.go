package publish

import (
	"fmt"

	"github.com/memtensor/altsheet/pkg/altext"
	"github.com/memtensor/altsheet/pkg/types"
)

const (
	// NoSourceImage fills the first column when a figure has no uploaded image
	NoSourceImage = "No source image"

	// LinkLabel is the visible text of the hyperlink column
	LinkLabel = "Image Link"
)

// BuildRows turns alt entries into sheet rows. links maps an image base
// name to its public link; each entry key is looked up with its trailing
// digits removed so that duplicates find the image of their first use.
func BuildRows(entries []types.AltEntry, links map[string]string) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		link, ok := links[altext.LookupKey(entry.Key)]
		if !ok {
			rows = append(rows, []string{NoSourceImage, "", entry.AltText()})
			continue
		}
		rows = append(rows, []string{ImageFormula(link), HyperlinkFormula(link), entry.AltText()})
	}
	return rows
}

// ImageFormula renders the image inline in its cell
func ImageFormula(link string) string {
	return fmt.Sprintf(`=IMAGE("%s")`, link)
}

// HyperlinkFormula renders a clickable link to the image
func HyperlinkFormula(link string) string {
	return fmt.Sprintf(`=HYPERLINK("%s", "%s")`, link, LinkLabel)
}
