package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/nutrifill/constants"
)

// AllowedExt checks if a file extension is one the inbox picks up (txt, md).
func AllowedExt(ext string) bool {
	ext = constants.NormalizeExt(ext)
	_, ok := constants.InboxExtensions[ext]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}

func eligible(path string) bool {
	return !IsHidden(path) && AllowedExt(filepath.Ext(path))
}
