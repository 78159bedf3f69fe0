// Package http serves the slotbox upload and retrieval endpoints.
//
// Every path below the server root addresses one stored file:
//
//	PUT  /<path>?v2=<token>   upload (201 Created, empty body)
//	HEAD /<path>              size and content type
//	GET  /<path>              content, with Range support
//
// Uploads are authorized by an HMAC token in the query string; see
// slotbox.SelectToken for the accepted parameters. Downloads are public:
// knowing the path is the capability.
//
// HEAD and GET responses carry X-Content-Type-Options and
// Content-Security-Policy headers that forbid sniffing, subresource loading
// and framing. Images, video, audio and plain text are served inline, all
// other types as attachments.
//
// Errors are short plaintext reasons with the matching status code:
//
//	403  no auth token provided / invalid auth token
//	409  file already exists
//	404  file not found
//	400  invalid path / content length mismatch / invalid request
//	413  upload too large
//	500  internal server error
//
// # Usage
//
//	handler := http.NewHandler(&http.HandlerConfig{AccessLog: true}, service)
//	srv := &nethttp.Server{Addr: ":5708", Handler: handler.Router()}
//	srv.ListenAndServe()
//
// Optional CORS support is configured through HandlerConfig.CORS.
package http
