// Package altext extracts figure alt text from authoring-tool XML exports.
//
// Every figure element yields exactly one entry in document order. The key
// is derived from the figure's image reference:
//
//   - no image-data child: "No name", then "No name2", "No name3", ...
//   - first use of an image: the file's base name with trailing digits removed
//   - later uses of the same image: the unstripped base name plus a counter
//     starting at 2, shared by all duplicates in the document
//
// A first-use entry stores "" when the figure has no alt attribute, while the
// other two kinds keep the absence as a nil Alt.
package altext

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"

	alterrors "github.com/memtensor/altsheet/pkg/errors"
	"github.com/memtensor/altsheet/pkg/types"
)

// NoNameKey is the key used for figures without an image reference
const NoNameKey = "No name"

// Options names the elements and attributes the extractor reads.
// Names are matched against local names, ignoring namespace prefixes.
type Options struct {
	FigureTag    string
	ImageDataTag string
	AltAttr      string
	SrcAttr      string
}

// DefaultOptions returns the element names used by the authoring tool's export
func DefaultOptions() Options {
	return Options{
		FigureTag:    "Figure",
		ImageDataTag: "ImageData",
		AltAttr:      "Alt",
		SrcAttr:      "src",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.FigureTag == "" {
		o.FigureTag = d.FigureTag
	}
	if o.ImageDataTag == "" {
		o.ImageDataTag = d.ImageDataTag
	}
	if o.AltAttr == "" {
		o.AltAttr = d.AltAttr
	}
	if o.SrcAttr == "" {
		o.SrcAttr = d.SrcAttr
	}
	return o
}

// figure is one figure element as found in the document
type figure struct {
	alt      *string
	src      *string
	hasImage bool
}

// Extract reads one XML document and returns its alt entries in document order
func Extract(r io.Reader, opts Options) (*types.AltMap, error) {
	figures, err := scan(r, opts.withDefaults())
	if err != nil {
		return nil, err
	}
	return assignKeys(figures)
}

// ExtractBytes is Extract over an in-memory document
func ExtractBytes(data []byte, opts Options) (*types.AltMap, error) {
	return Extract(bytes.NewReader(data), opts)
}

// ExtractFile reads and extracts the document at path
func ExtractFile(path string, opts Options) (*types.AltMap, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, alterrors.NewFileNotFoundError(path)
		}
		return nil, alterrors.NewFileError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	m, err := Extract(f, opts)
	if err != nil {
		return nil, alterrors.NewInvalidDocumentError(filepath.Base(path), err)
	}
	return m, nil
}

// scan walks the token stream and records every figure with the first
// image-data element nested anywhere inside it.
func scan(r io.Reader, opts Options) ([]*figure, error) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false
	decoder.Entity = xml.HTMLEntity
	decoder.CharsetReader = charset.NewReaderLabel

	var figures []*figure
	var open []*figure
	var stack []bool

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == opts.ImageDataTag {
				src := attr(t, opts.SrcAttr)
				for _, f := range open {
					if !f.hasImage {
						f.hasImage = true
						f.src = src
					}
				}
			}

			isFigure := t.Name.Local == opts.FigureTag
			if isFigure {
				f := &figure{alt: attr(t, opts.AltAttr)}
				figures = append(figures, f)
				open = append(open, f)
			}
			stack = append(stack, isFigure)

		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			if stack[len(stack)-1] {
				open = open[:len(open)-1]
			}
			stack = stack[:len(stack)-1]
		}
	}

	return figures, nil
}

func attr(el xml.StartElement, name string) *string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			v := a.Value
			return &v
		}
	}
	return nil
}

func assignKeys(figures []*figure) (*types.AltMap, error) {
	result := types.NewAltMap()
	noNameSuffix := 2
	duplicateSuffix := 2

	for i, f := range figures {
		if !f.hasImage {
			key := NoNameKey
			if result.Has(key) {
				key = nextFree(result, NoNameKey, &noNameSuffix)
			}
			result.Add(key, f.alt)
			continue
		}

		if f.src == nil {
			return nil, fmt.Errorf("figure %d: image reference has no src attribute", i+1)
		}

		name := Basename(*f.src)
		base := StripDigits(name)
		if !result.Has(base) {
			alt := f.alt
			if alt == nil {
				alt = types.StringPtr("")
			}
			result.Add(base, alt)
			continue
		}

		result.Add(nextFree(result, name, &duplicateSuffix), f.alt)
	}

	return result, nil
}

// nextFree returns prefix+counter, advancing counter past keys already taken
func nextFree(m *types.AltMap, prefix string, counter *int) string {
	for {
		key := prefix + strconv.Itoa(*counter)
		*counter++
		if !m.Has(key) {
			return key
		}
	}
}

// Basename returns the final element of an image reference. Both slash
// styles are treated as separators; a trailing separator yields "".
func Basename(ref string) string {
	if i := strings.LastIndexAny(ref, `/\`); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

// StripDigits removes trailing ASCII digits
func StripDigits(s string) string {
	return strings.TrimRight(s, "0123456789")
}

// LookupKey maps an entry key back to the image base name it was derived
// from, so that duplicate keys such as "fig_1.jpg2" resolve to "fig_1.jpg".
func LookupKey(key string) string {
	return StripDigits(key)
}
