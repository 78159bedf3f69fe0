package slotbox

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"slices"
	"strings"
)

const (
	// MetadataContentType is the sidecar key holding the declared content type.
	MetadataContentType = "Content-Type"
	// DefaultContentType is used when a request or a sidecar names no content type.
	DefaultContentType = "application/octet-stream"
)

// Metadata is the key/value record stored in an object's sidecar.
type Metadata map[string]string

// ContentType returns the recorded content type, or DefaultContentType
// when the record has none.
func (m Metadata) ContentType() string {
	if ct, ok := m[MetadataContentType]; ok && ct != "" {
		return ct
	}
	return DefaultContentType
}

// EncodeMetadata renders m as one "key:value" line per entry, sorted by key.
// The format has no escaping, so keys containing ':' and any line breaks
// are rejected.
func EncodeMetadata(m Metadata) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var buf bytes.Buffer
	for _, k := range keys {
		v := m[k]
		if strings.TrimSpace(k) == "" || strings.ContainsAny(k, ":\r\n") {
			return nil, fmt.Errorf("encode metadata: %w: bad key %q", ErrInvalidInput, k)
		}
		if strings.ContainsAny(v, "\r\n") {
			return nil, fmt.Errorf("encode metadata: %w: line break in value of %q", ErrInvalidInput, k)
		}
		buf.WriteString(k)
		buf.WriteByte(':')
		buf.WriteString(v)
		buf.WriteByte('\n')
	}

	return buf.Bytes(), nil
}

// DecodeMetadata parses sidecar content. Blank lines and lines without a
// colon are skipped; keys and values are trimmed. Later duplicates win.
func DecodeMetadata(r io.Reader) (Metadata, error) {
	m := make(Metadata)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		m[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}

	return m, nil
}

// IsInline reports whether content of the given type may be displayed
// inline. Images, video, audio and plain text are; everything else is
// served as an attachment.
func IsInline(contentType string) bool {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return true
	case strings.HasPrefix(contentType, "video/"):
		return true
	case strings.HasPrefix(contentType, "audio/"):
		return true
	default:
		return contentType == "text/plain"
	}
}
