package slotbox

import (
	"errors"
	"fmt"
	"io"
)

// exactSizeReader fails the read that makes the byte count diverge from
// the declared size, so a short or long body never reaches publication.
type exactSizeReader struct {
	r        io.Reader
	expected int64
	n        int64
}

func (r *exactSizeReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	r.n += int64(n)

	if r.n > r.expected {
		return n, fmt.Errorf("received more than %d bytes: %w", r.expected, ErrSizeMismatch)
	}

	if errors.Is(err, io.ErrUnexpectedEOF) || (errors.Is(err, io.EOF) && r.n != r.expected) {
		return n, fmt.Errorf("received %d of %d bytes: %w", r.n, r.expected, ErrSizeMismatch)
	}

	return n, err
}

// maxSizeReader fails once more than max bytes have been read.
type maxSizeReader struct {
	r   io.Reader
	max int64
	n   int64
}

func (r *maxSizeReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	r.n += int64(n)

	if r.n > r.max {
		return n, fmt.Errorf("body exceeds %d bytes: %w", r.max, ErrTooLarge)
	}

	return n, err
}
