package core

// input.go decodes file content before it reaches the parser.
//
// Files exported by spreadsheet tools often start with a byte order mark or
// are saved as UTF-16. DecodeText strips a UTF-8 BOM, transcodes UTF-16 when
// a UTF-16 BOM is present and replaces invalid UTF-8 with U+FFFD, reading at
// most limit bytes of input.

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DecodeText reads r as text. Input longer than limit bytes fails with
// ErrFileTooLarge; a limit <= 0 disables the check.
func DecodeText(r io.Reader, limit int64) (string, error) {
	counted := &countingReader{reader: r}
	var src io.Reader = counted
	if limit > 0 {
		src = io.LimitReader(counted, limit+1)
	}

	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	data, err := io.ReadAll(transform.NewReader(src, decoder))
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	if limit > 0 && counted.n > limit {
		return "", fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, limit)
	}
	return string(data), nil
}

// countingReader tracks bytes read from the underlying reader.
type countingReader struct {
	reader io.Reader
	n      int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.n += int64(n)
	return n, err
}
