package http

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrInvalidChunkSize   = errors.New("invalid chunk size")
	ErrInvalidChunkFormat = errors.New("invalid chunk format")
)

const maxChunkSizeLine = 1024

type chunkState int

const (
	chunkSize chunkState = iota
	chunkData
	chunkDataCRLF
	chunkTrailer
	chunkDone
)

// chunkDecoder incrementally decodes a chunked transfer-encoded body into a
// contiguous buffer. State survives across partial reads.
type chunkDecoder struct {
	state chunkState
	size  int
	read  int
	total int64
}

func (d *chunkDecoder) reset() {
	*d = chunkDecoder{}
}

// decode consumes as much of data as possible, appending decoded payload to
// *body. It returns the number of input bytes consumed and done=true once
// the terminal chunk and trailer section have been read.
func (d *chunkDecoder) decode(data []byte, body *[]byte, maxBody int64) (int, bool, error) {
	consumed := 0

	for consumed < len(data) {
		switch d.state {
		case chunkSize:
			n, err := d.parseSizeLine(data[consumed:])
			if err != nil {
				return consumed, false, err
			}
			if n == 0 {
				return consumed, false, nil
			}
			consumed += n
			if d.size == 0 {
				d.state = chunkTrailer
			} else {
				d.state = chunkData
				d.read = 0
			}

		case chunkData:
			remaining := d.size - d.read
			toRead := min(remaining, len(data)-consumed)
			if d.total+int64(toRead) > maxBody {
				return consumed, false, ErrBodyTooLarge
			}
			*body = append(*body, data[consumed:consumed+toRead]...)
			consumed += toRead
			d.read += toRead
			d.total += int64(toRead)
			if d.read < d.size {
				return consumed, false, nil
			}
			d.state = chunkDataCRLF

		case chunkDataCRLF:
			if len(data)-consumed < 2 {
				return consumed, false, nil
			}
			if data[consumed] != '\r' || data[consumed+1] != '\n' {
				return consumed, false, ErrInvalidChunkFormat
			}
			consumed += 2
			d.state = chunkSize

		case chunkTrailer:
			rest := data[consumed:]
			if len(rest) < 2 {
				return consumed, false, nil
			}
			// Common case: no trailer headers, just the final CRLF.
			if rest[0] == '\r' && rest[1] == '\n' {
				consumed += 2
				d.state = chunkDone
				return consumed, true, nil
			}
			idx := bytes.Index(rest, []byte("\r\n\r\n"))
			if idx == -1 {
				if len(rest) > maxChunkSizeLine {
					return consumed, false, fmt.Errorf("%w: trailer too large", ErrInvalidChunkFormat)
				}
				return consumed, false, nil
			}
			consumed += idx + 4
			d.state = chunkDone
			return consumed, true, nil

		case chunkDone:
			return consumed, true, nil
		}
	}

	return consumed, d.state == chunkDone, nil
}

// parseSizeLine parses "SIZE[;extensions]\r\n". Extensions are ignored.
func (d *chunkDecoder) parseSizeLine(data []byte) (int, error) {
	limit := min(len(data), maxChunkSizeLine)
	idx := bytes.Index(data[:limit], crlf)
	if idx == -1 {
		if len(data) >= maxChunkSizeLine {
			return 0, fmt.Errorf("%w: size line too long", ErrInvalidChunkSize)
		}
		return 0, nil
	}

	sizeField := data[:idx]
	if semi := bytes.IndexByte(sizeField, ';'); semi != -1 {
		sizeField = sizeField[:semi]
	}
	size, err := strconv.ParseInt(string(bytes.TrimSpace(sizeField)), 16, 32)
	if err != nil || size < 0 {
		return 0, ErrInvalidChunkSize
	}

	d.size = int(size)
	return idx + 2, nil
}
