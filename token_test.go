package slotbox_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"testing"

	"github.com/sagarc03/slotbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "upload-secret"

func sign(msg string) string {
	h := hmac.New(sha256.New, []byte(testSecret))
	h.Write([]byte(msg))
	return hex.EncodeToString(h.Sum(nil))
}

func v1Token(path, size string) string {
	return sign(path + " " + size)
}

func v2Token(path, size, contentType string) string {
	return sign(path + "\x00" + size + "\x00" + contentType)
}

func TestTokenVerifier_Verify(t *testing.T) {
	verifier := slotbox.NewTokenVerifier([]byte(testSecret))

	tests := []struct {
		name        string
		version     slotbox.TokenVersion
		path        string
		size        int64
		contentType string
		token       string
		want        bool
	}{
		{
			name:    "v1 valid",
			version: slotbox.TokenV1,
			path:    "abc/photo.jpg",
			size:    1024,
			token:   v1Token("abc/photo.jpg", "1024"),
			want:    true,
		},
		{
			name:        "v1 ignores content type",
			version:     slotbox.TokenV1,
			path:        "abc/photo.jpg",
			size:        1024,
			contentType: "image/png",
			token:       v1Token("abc/photo.jpg", "1024"),
			want:        true,
		},
		{
			name:    "v1 wrong size",
			version: slotbox.TokenV1,
			path:    "abc/photo.jpg",
			size:    1025,
			token:   v1Token("abc/photo.jpg", "1024"),
			want:    false,
		},
		{
			name:    "v1 wrong path",
			version: slotbox.TokenV1,
			path:    "abc/photo.jpeg",
			size:    1024,
			token:   v1Token("abc/photo.jpg", "1024"),
			want:    false,
		},
		{
			name:        "v2 valid",
			version:     slotbox.TokenV2,
			path:        "abc/photo.jpg",
			size:        1024,
			contentType: "image/jpeg",
			token:       v2Token("abc/photo.jpg", "1024", "image/jpeg"),
			want:        true,
		},
		{
			name:        "v2 wrong content type",
			version:     slotbox.TokenV2,
			path:        "abc/photo.jpg",
			size:        1024,
			contentType: "text/html",
			token:       v2Token("abc/photo.jpg", "1024", "image/jpeg"),
			want:        false,
		},
		{
			name:        "v1 token presented as v2",
			version:     slotbox.TokenV2,
			path:        "abc/photo.jpg",
			size:        1024,
			contentType: "image/jpeg",
			token:       v1Token("abc/photo.jpg", "1024"),
			want:        false,
		},
		{
			name:        "uppercase hex rejected",
			version:     slotbox.TokenV2,
			path:        "abc/photo.jpg",
			size:        1024,
			contentType: "image/jpeg",
			token:       strings.ToUpper(v2Token("abc/photo.jpg", "1024", "image/jpeg")),
			want:        false,
		},
		{
			name:    "empty token",
			version: slotbox.TokenV1,
			path:    "abc/photo.jpg",
			size:    1024,
			token:   "",
			want:    false,
		},
		{
			name:    "unknown version",
			version: slotbox.TokenVersion(0),
			path:    "abc/photo.jpg",
			size:    1024,
			token:   v1Token("abc/photo.jpg", "1024"),
			want:    false,
		},
		{
			name:    "zero size",
			version: slotbox.TokenV1,
			path:    "empty.txt",
			size:    0,
			token:   v1Token("empty.txt", "0"),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := verifier.Verify(tt.version, tt.path, tt.size, tt.contentType, tt.token)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenVerifier_Verify_SingleByteFlip(t *testing.T) {
	verifier := slotbox.NewTokenVerifier([]byte(testSecret))
	token := v2Token("a.txt", "3", "text/plain")

	require.True(t, verifier.Verify(slotbox.TokenV2, "a.txt", 3, "text/plain", token))

	for i := range token {
		flipped := []byte(token)
		if flipped[i] == '0' {
			flipped[i] = '1'
		} else {
			flipped[i] = '0'
		}
		assert.False(t, verifier.Verify(slotbox.TokenV2, "a.txt", 3, "text/plain", string(flipped)), "position %d", i)
	}
}

func TestTokenVerifier_CopiesSecret(t *testing.T) {
	secret := []byte(testSecret)
	verifier := slotbox.NewTokenVerifier(secret)
	secret[0] = 'X'

	assert.True(t, verifier.Verify(slotbox.TokenV1, "a.txt", 1, "", v1Token("a.txt", "1")))
}

func TestSelectToken(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		wantVersion slotbox.TokenVersion
		wantToken   string
		wantErr     error
	}{
		{name: "v only", query: "v=abc", wantVersion: slotbox.TokenV1, wantToken: "abc"},
		{name: "v2 only", query: "v2=def", wantVersion: slotbox.TokenV2, wantToken: "def"},
		{name: "v2 wins over v", query: "v=abc&v2=def", wantVersion: slotbox.TokenV2, wantToken: "def"},
		{name: "empty v2 still selected", query: "v2=&v=abc", wantVersion: slotbox.TokenV2, wantToken: ""},
		{name: "unrelated params", query: "token=abc&v3=x", wantErr: slotbox.ErrAuthMissing},
		{name: "no params", query: "", wantErr: slotbox.ErrAuthMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			version, token, err := slotbox.SelectToken(q)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, version)
			assert.Equal(t, tt.wantToken, token)
		})
	}
}

func TestTokenVerifier_VerifyRequest(t *testing.T) {
	verifier := slotbox.NewTokenVerifier([]byte(testSecret))

	t.Run("valid v2", func(t *testing.T) {
		q := url.Values{"v2": {v2Token("f.bin", "10", "application/octet-stream")}}
		version, err := verifier.VerifyRequest(q, "f.bin", 10, "application/octet-stream")
		require.NoError(t, err)
		assert.Equal(t, slotbox.TokenV2, version)
	})

	t.Run("v2 takes precedence even if v would pass", func(t *testing.T) {
		q := url.Values{
			"v":  {v1Token("f.bin", "10")},
			"v2": {"deadbeef"},
		}
		version, err := verifier.VerifyRequest(q, "f.bin", 10, "application/octet-stream")
		assert.ErrorIs(t, err, slotbox.ErrAuthInvalid)
		assert.Equal(t, slotbox.TokenV2, version)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := verifier.VerifyRequest(url.Values{}, "f.bin", 10, "")
		assert.ErrorIs(t, err, slotbox.ErrAuthMissing)
	})
}

func TestTokenVersion_String(t *testing.T) {
	assert.Equal(t, "v1", slotbox.TokenV1.String())
	assert.Equal(t, "v2", slotbox.TokenV2.String())
	assert.Equal(t, "unknown", slotbox.TokenVersion(7).String())
}
