package slotbox

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const metadataSuffix = ".metadata"

var windowsDeviceNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {}, "COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {}, "LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// SecureFilename collapses an untrusted client path into a single
// filename-safe token. Directory structure is not preserved: separators
// become underscores, traversal segments lose their dots, and everything
// outside [A-Za-z0-9_.-] is dropped. The result never starts or ends with
// '.' or '_' and may be empty.
func SecureFilename(p string) string {
	p = norm.NFKD.String(p)

	var ascii strings.Builder
	ascii.Grow(len(p))
	for _, r := range p {
		if r < 0x80 {
			ascii.WriteRune(r)
		}
	}
	p = ascii.String()

	p = strings.ReplaceAll(p, "/", " ")
	if filepath.Separator != '/' {
		p = strings.ReplaceAll(p, string(filepath.Separator), " ")
	}

	p = strings.Join(strings.Fields(p), "_")

	var safe strings.Builder
	safe.Grow(len(p))
	for i := 0; i < len(p); i++ {
		c := p[i]
		if isFilenameSafe(c) {
			safe.WriteByte(c)
		}
	}
	p = strings.Trim(safe.String(), "._")

	if runtime.GOOS == "windows" && p != "" {
		base, _, _ := strings.Cut(p, ".")
		if _, reserved := windowsDeviceNames[strings.ToUpper(base)]; reserved {
			p = "_" + p
		}
	}

	return p
}

func isFilenameSafe(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_', c == '.', c == '-':
		return true
	default:
		return false
	}
}

// StorageName maps a client path to the name of its object under the
// storage root. Returns ErrInvalidPath if nothing usable remains.
func StorageName(clientPath string) (string, error) {
	name := SecureFilename(clientPath)
	if name == "" {
		return "", fmt.Errorf("storage name %q: %w", clientPath, ErrInvalidPath)
	}
	return name, nil
}

// ResolvePath returns the filesystem location of the object for clientPath.
// The result is always a direct child of root.
func ResolvePath(root, clientPath string) (string, error) {
	name, err := StorageName(clientPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, name), nil
}

// MetadataName returns the sidecar location for a storage path: same
// directory, filename prefixed with '.' and suffixed with ".metadata".
func MetadataName(storagePath string) string {
	dir, file := filepath.Split(storagePath)
	return dir + "." + file + metadataSuffix
}

// IsMetadataName reports whether name looks like a sidecar and returns the
// name of the object it belongs to.
func IsMetadataName(name string) (string, bool) {
	if filepath.Base(name) != name || len(name) <= 1+len(metadataSuffix) {
		return "", false
	}
	if name[0] != '.' || !strings.HasSuffix(name, metadataSuffix) {
		return "", false
	}
	return name[1 : len(name)-len(metadataSuffix)], true
}
