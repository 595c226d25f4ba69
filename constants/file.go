package constants

import "strings"

// InboxExtensions holds the file extensions picked up by the inbox watcher.
var InboxExtensions = map[string]struct{}{
	"txt": {},
	"md":  {},
}

// DoneSuffix is appended to inbox files once their pass has run.
const DoneSuffix = ".done"

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
