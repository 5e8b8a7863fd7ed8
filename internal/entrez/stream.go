package entrez

import (
	"bytes"
	"io"

	"github.com/FocuswithJustin/ncbi-acc-download/core/errors"
	"github.com/FocuswithJustin/ncbi-acc-download/internal/config"
)

// ChunkSize is the read size used when draining a response.
const ChunkSize = 4096

// ErrorPatterns are messages NCBI embeds in otherwise successful responses
// when a download went wrong. Matching is case-sensitive.
var ErrorPatterns = []string{
	"Error reading from remote server",
	"Bad gateway",
	"Bad Gateway",
	"Cannot process ID list",
	"server is temporarily unable to service your request",
	"Service unavailable",
	"Server Error",
	"ID list is empty",
	"Resource temporarily unavailable",
	"Failed to retrieve sequence",
	"Failed to understand id",
}

// WriteStream drains resp into sink in ChunkSize pieces. Each chunk is
// checked for ErrorPatterns before it is written; on a match reading stops
// and that chunk is not written. emit, if non-nil, receives one "." per
// chunk and a final newline. The response body is always closed.
func WriteStream(resp *Response, sink io.Writer, ids string, emit config.Emitter) error {
	defer resp.Body.Close()

	if emit == nil {
		emit = config.NopEmitter{}
	}

	buf := make([]byte, ChunkSize)
	for {
		n, readErr := io.ReadFull(resp.Body, buf)
		if n > 0 {
			chunk := buf[:n]
			emit.Emit(".")
			if pattern := findErrorPattern(chunk); pattern != "" {
				return &errors.BadPatternError{IDs: ids, Pattern: pattern}
			}
			if _, err := sink.Write(chunk); err != nil {
				return errors.NewIO("write", ids, err)
			}
		}

		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			return errors.NewDownload(ids, readErr)
		}
	}

	emit.Emit("\n")
	return nil
}

func findErrorPattern(chunk []byte) string {
	for _, pattern := range ErrorPatterns {
		if bytes.Contains(chunk, []byte(pattern)) {
			return pattern
		}
	}
	return ""
}
