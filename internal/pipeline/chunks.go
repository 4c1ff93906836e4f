package pipeline

import (
	"errors"
	"fmt"
	"io"

	"github.com/postalsys/dexios-go/internal/dexerrors"
)

// readChunk reads up to size bytes from r. A short final read (including a
// zero-byte read at EOF) is not an error: it signals the caller that this
// is the last chunk available. Only a genuine I/O failure is reported as
// an error.
func readChunk(r io.Reader, size int) ([]byte, error) {
	buf := make([]byte, size)
	n, err := io.ReadFull(r, buf)
	switch {
	case err == nil:
		return buf, nil
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return buf[:n], nil
	default:
		return nil, fmt.Errorf("%w: %v", dexerrors.ErrIO, err)
	}
}
