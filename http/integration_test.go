package http_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/sagarc03/slotbox"
	"github.com/sagarc03/slotbox/filesystem"
	slotboxhttp "github.com/sagarc03/slotbox/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const integrationSecret = "integration-secret"

func v2Token(path string, size int, contentType string) string {
	h := hmac.New(sha256.New, []byte(integrationSecret))
	h.Write([]byte(path + "\x00" + strconv.Itoa(size) + "\x00" + contentType))
	return hex.EncodeToString(h.Sum(nil))
}

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	dir := t.TempDir()
	root, err := os.OpenRoot(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = root.Close() })

	service, err := slotbox.NewService(
		slotbox.NewTokenVerifier([]byte(integrationSecret)),
		filesystem.NewFileStorage(root),
		filesystem.NewSidecarStore(root),
		slotbox.ServiceConfig{EnforceSize: true},
	)
	require.NoError(t, err)

	handler := slotboxhttp.NewHandler(&slotboxhttp.HandlerConfig{}, service)
	srv := httptest.NewServer(handler.Router())
	t.Cleanup(srv.Close)

	return srv, dir
}

func put(t *testing.T, srv *httptest.Server, path, query, contentType, body string) *http.Response {
	t.Helper()

	u := srv.URL + "/" + (&url.URL{Path: path}).EscapedPath()
	if query != "" {
		u += "?" + query
	}

	req, err := http.NewRequest(http.MethodPut, u, strings.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestIntegration_UploadAndRetrieve(t *testing.T) {
	srv, dir := newTestServer(t)

	body := "hello, world"
	token := v2Token("abc/greeting.txt", len(body), "text/plain")

	resp := put(t, srv, "abc/greeting.txt", "v2="+token, "text/plain", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	assert.FileExists(t, filepath.Join(dir, "abc_greeting.txt"))
	assert.FileExists(t, filepath.Join(dir, ".abc_greeting.txt.metadata"))

	head, err := srv.Client().Head(srv.URL + "/abc/greeting.txt")
	require.NoError(t, err)
	_ = head.Body.Close()
	assert.Equal(t, http.StatusOK, head.StatusCode)
	assert.Equal(t, strconv.Itoa(len(body)), head.Header.Get("Content-Size"))
	assert.Equal(t, "text/plain", head.Header.Get("Content-Type"))

	get, err := srv.Client().Get(srv.URL + "/abc/greeting.txt")
	require.NoError(t, err)
	defer func() { _ = get.Body.Close() }()
	got, err := io.ReadAll(get.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, get.StatusCode)
	assert.Equal(t, body, string(got))
	assert.Equal(t, "inline; filename=abc_greeting.txt", get.Header.Get("Content-Disposition"))

	// Any path that sanitizes to the same name reaches the same object.
	alias, err := srv.Client().Get(srv.URL + "/abc_greeting.txt")
	require.NoError(t, err)
	_ = alias.Body.Close()
	assert.Equal(t, http.StatusOK, alias.StatusCode)
}

func TestIntegration_DuplicateUpload(t *testing.T) {
	srv, _ := newTestServer(t)

	token := v2Token("dup.bin", 3, "application/octet-stream")

	first := put(t, srv, "dup.bin", "v2="+token, "application/octet-stream", "one")
	assert.Equal(t, http.StatusCreated, first.StatusCode)

	second := put(t, srv, "dup.bin", "v2="+token, "application/octet-stream", "two")
	assert.Equal(t, http.StatusConflict, second.StatusCode)
	msg, _ := io.ReadAll(second.Body)
	assert.Equal(t, "file already exists\n", string(msg))
}

func TestIntegration_AuthFailures(t *testing.T) {
	srv, dir := newTestServer(t)

	missing := put(t, srv, "a.txt", "", "text/plain", "abc")
	assert.Equal(t, http.StatusForbidden, missing.StatusCode)

	wrongType := put(t, srv, "a.txt", "v2="+v2Token("a.txt", 3, "text/plain"), "text/html", "abc")
	assert.Equal(t, http.StatusForbidden, wrongType.StatusCode)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestIntegration_TraversalStaysInRoot(t *testing.T) {
	srv, dir := newTestServer(t)

	path := "../../etc/passwd"
	token := v2Token(path, 4, "text/plain")

	u := srv.URL + "/?v2=" + token
	req, err := http.NewRequest(http.MethodPut, u, strings.NewReader("root"))
	require.NoError(t, err)
	// Set the decoded path directly so the client does not clean it.
	req.URL.Path = "/" + path
	req.Header.Set("Content-Type", "text/plain")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.FileExists(t, filepath.Join(dir, "etc_passwd"))
	entries, err := os.ReadDir(filepath.Dir(dir))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, "passwd", e.Name())
	}
}

func TestIntegration_NotFoundWithoutSidecar(t *testing.T) {
	srv, dir := newTestServer(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "half.txt"), []byte("x"), 0o644))

	resp, err := srv.Client().Get(srv.URL + "/half.txt")
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func TestIntegration_UndeclaredLength(t *testing.T) {
	srv, dir := newTestServer(t)

	token := v2Token("a.txt", 3, "text/plain")

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/a.txt?v2="+token, io.NopCloser(strings.NewReader("abcdef")))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "text/plain")
	req.ContentLength = -1
	req.TransferEncoding = []string{"chunked"}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	// Without a declared length the token for size 3 does not match.
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
