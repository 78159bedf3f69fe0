package keybackend

import "errors"

var (
	// ErrNoSecret is returned when neither an inline secret nor a secret file is configured.
	ErrNoSecret = errors.New("no upload secret configured")
	// ErrAmbiguousSecret is returned when both an inline secret and a secret file are configured.
	ErrAmbiguousSecret = errors.New("both auth.secret and auth.secret_file are set")
	// ErrEmptySecret is returned when the resolved secret has no bytes.
	ErrEmptySecret = errors.New("upload secret is empty")
)
