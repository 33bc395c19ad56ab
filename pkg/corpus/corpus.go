// Package corpus locates the XML documents and their images on disk
package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	alterrors "github.com/memtensor/altsheet/pkg/errors"
	"github.com/memtensor/altsheet/pkg/types"
)

// ImageNameFormat describes the required image file name layout
const ImageNameFormat = "<document>_<N>.<ext>"

// ListDocuments returns the names of regular files in dir whose name ends
// with ext, sorted by name. Subdirectories are not searched.
func ListDocuments(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, alterrors.NewFileNotFoundError(dir)
		}
		return nil, alterrors.NewFileError(fmt.Sprintf("failed to list %s", dir), err)
	}

	var docs []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if strings.HasSuffix(e.Name(), ext) {
			docs = append(docs, e.Name())
		}
	}
	sort.Strings(docs)
	return docs, nil
}

// Stem returns a file name without its extension
func Stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// MatchImages returns the images in dir that belong to the document with
// the given stem, ordered by the integer after the last underscore.
//
// Every file whose name starts with stem is taken to be one of the
// document's images and must follow ImageNameFormat.
func MatchImages(dir, stem string) ([]types.ImageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, alterrors.NewFileNotFoundError(dir)
		}
		return nil, alterrors.NewFileError(fmt.Sprintf("failed to list %s", dir), err)
	}

	var images []types.ImageFile
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasPrefix(e.Name(), stem) {
			continue
		}
		index, err := ImageIndex(e.Name())
		if err != nil {
			return nil, err
		}
		images = append(images, types.ImageFile{
			Name:  e.Name(),
			Path:  filepath.Join(dir, e.Name()),
			Index: index,
		})
	}

	sort.SliceStable(images, func(i, j int) bool {
		return images[i].Index < images[j].Index
	})
	return images, nil
}

// ImageIndex parses N out of a "<document>_<N>.<ext>" file name
func ImageIndex(name string) (int, error) {
	stem := Stem(name)
	i := strings.LastIndex(stem, "_")
	if i < 0 {
		return 0, alterrors.NewInvalidFilenameError(name, ImageNameFormat)
	}
	n, err := strconv.Atoi(stem[i+1:])
	if err != nil {
		return 0, alterrors.NewInvalidFilenameError(name, ImageNameFormat)
	}
	return n, nil
}
