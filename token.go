package slotbox

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
)

// TokenVersion identifies the signing scheme of an upload token.
type TokenVersion int

const (
	// TokenV1 signs "{path} {size}". The content type is not covered.
	TokenV1 TokenVersion = iota + 1
	// TokenV2 signs "{path}\x00{size}\x00{content type}".
	TokenV2
)

func (v TokenVersion) String() string {
	switch v {
	case TokenV1:
		return "v1"
	case TokenV2:
		return "v2"
	default:
		return "unknown"
	}
}

// TokenParam binds a query parameter name to the token version it carries.
type TokenParam struct {
	Name    string
	Version TokenVersion
}

// TokenParams lists the recognized token parameters in lookup order.
// The first parameter present in a request wins.
var TokenParams = []TokenParam{
	{Name: "v2", Version: TokenV2},
	{Name: "v", Version: TokenV1},
}

// SelectToken returns the version and value of the first recognized token
// parameter present in query. A present but empty parameter still counts.
// Returns ErrAuthMissing if none is present.
func SelectToken(query url.Values) (TokenVersion, string, error) {
	for _, p := range TokenParams {
		if query.Has(p.Name) {
			return p.Version, query.Get(p.Name), nil
		}
	}
	return 0, "", ErrAuthMissing
}

// TokenVerifier checks upload tokens against a shared secret.
// It holds no mutable state and is safe for concurrent use.
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier creates a verifier for the given secret key.
func NewTokenVerifier(secret []byte) *TokenVerifier {
	key := make([]byte, len(secret))
	copy(key, secret)
	return &TokenVerifier{secret: key}
}

// Verify recomputes the expected token for the given request metadata and
// compares it with token in constant time. path is the literal request path,
// not the sanitized storage name.
func (v *TokenVerifier) Verify(version TokenVersion, path string, size int64, contentType, token string) bool {
	signed, ok := signingString(version, path, size, contentType)
	if !ok {
		return false
	}

	expected := hex.EncodeToString(hmacSHA256(v.secret, []byte(signed)))
	return hmac.Equal([]byte(expected), []byte(token))
}

// VerifyRequest runs SelectToken on query and verifies the selected token.
// It returns the version that was checked.
func (v *TokenVerifier) VerifyRequest(query url.Values, path string, size int64, contentType string) (TokenVersion, error) {
	version, token, err := SelectToken(query)
	if err != nil {
		return 0, err
	}

	if !v.Verify(version, path, size, contentType, token) {
		return version, fmt.Errorf("verify %s token: %w", version, ErrAuthInvalid)
	}

	return version, nil
}

func signingString(version TokenVersion, path string, size int64, contentType string) (string, bool) {
	sizeStr := strconv.FormatInt(size, 10)

	switch version {
	case TokenV1:
		return path + " " + sizeStr, true
	case TokenV2:
		return path + "\x00" + sizeStr + "\x00" + contentType, true
	default:
		return "", false
	}
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}
