package http

import (
	"context"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sagarc03/slotbox"
)

type Service interface {
	Create(ctx context.Context, obj slotbox.CreateObject, version slotbox.TokenVersion, token string, content io.Reader) (slotbox.ObjectInfo, error)
	Stat(ctx context.Context, path string) (slotbox.ObjectInfo, error)
	Get(ctx context.Context, path string) (slotbox.ObjectInfo, io.ReadSeekCloser, error)
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	CORS CORSConfig
	// AccessLog enables per-request logging through slog.
	AccessLog bool
}

// Handler provides HTTP handlers for upload and retrieval.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	return &Handler{
		config:  *config,
		service: service,
	}
}

// Router returns an http.Handler serving PUT, HEAD and GET on every path.
// HEAD and GET responses carry the security headers regardless of outcome.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if h.config.AccessLog {
		r.Use(AccessLog)
	}
	r.Use(middleware.Recoverer)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Put("/*", h.handlePut)

	r.Group(func(r chi.Router) {
		r.Use(SecurityHeaders)
		r.Head("/*", h.handleHead)
		r.Get("/*", h.handleGet)
	})

	return r
}

func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")

	version, token, err := slotbox.SelectToken(r.URL.Query())
	if err != nil {
		HandleError(w, err)
		return
	}

	obj := slotbox.CreateObject{
		Path:          path,
		ContentLength: max(r.ContentLength, 0),
		ContentType:   r.Header.Get("Content-Type"),
	}

	if _, err := h.service.Create(r.Context(), obj, version, token, r.Body); err != nil {
		HandleError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) handleHead(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")

	info, err := h.service.Stat(r.Context(), path)
	if err != nil {
		HandleError(w, err)
		return
	}

	size := strconv.FormatInt(info.Size, 10)
	w.Header().Set("Content-Size", size)
	w.Header().Set("Content-Length", size)
	w.Header().Set("Content-Type", info.ContentType)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")

	info, content, err := h.service.Get(r.Context(), path)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = content.Close() }()

	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("Content-Disposition", ContentDisposition(info.Name, info.ContentType))

	http.ServeContent(w, r, info.Name, info.ModTime, content)
}

// ContentDisposition returns "inline" for content types browsers may render
// (see slotbox.IsInline) and an attachment with the stored filename for
// everything else.
func ContentDisposition(name, contentType string) string {
	disposition := "attachment"
	if slotbox.IsInline(contentType) {
		disposition = "inline"
	}
	if name == "" {
		return disposition
	}
	return mime.FormatMediaType(disposition, map[string]string{"filename": name})
}
