package http

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// splitEncoded separates the header block from the body.
func splitEncoded(t *testing.T, raw string) (lines []string, body string) {
	t.Helper()
	idx := strings.Index(raw, "\r\n\r\n")
	require.NotEqual(t, -1, idx, "missing header terminator")
	return strings.Split(raw[:idx], "\r\n"), raw[idx+4:]
}

func TestEncodeLayout(t *testing.T) {
	resp := NewResponse()
	resp.StatusCode(StatusCreated, "").
		Header("Content-Type", "application/json").
		Header("X-Request-Id", "abc").
		BodyString(`{"ok":true}`)

	lines, body := splitEncoded(t, string(resp.Encode(nil)))

	assert.Equal(t, "HTTP/1.1 201 Created", lines[0])
	assert.Equal(t, "Server: karics", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "Date: "), lines[2])
	assert.Equal(t, "Content-Length: 11", lines[3])
	assert.Equal(t, "Content-Type: application/json", lines[4])
	assert.Equal(t, "X-Request-Id: abc", lines[5])
	assert.Equal(t, `{"ok":true}`, body)

	when, err := time.Parse(time.RFC1123, strings.TrimPrefix(lines[2], "Date: "))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), when, 5*time.Second)
}

func TestEncodeNoHeadersNoBody(t *testing.T) {
	resp := NewResponse()
	lines, body := splitEncoded(t, string(resp.Encode(nil)))

	assert.Equal(t, "HTTP/1.1 200 OK", lines[0])
	assert.Equal(t, "Content-Length: 0", lines[3])
	assert.Len(t, lines, 4)
	assert.Empty(t, body)
}

func TestEncodeAppendsToBuf(t *testing.T) {
	a := NewResponse().StatusCode(StatusOK, "").BodyString("one")
	b := NewResponse().StatusCode(StatusNotFound, "").BodyString("two")

	out := a.Encode(nil)
	out = b.Encode(out)

	raw := string(out)
	assert.True(t, strings.HasPrefix(raw, "HTTP/1.1 200 OK\r\n"))
	assert.Contains(t, raw, "HTTP/1.1 404 Not Found\r\n")
	assert.True(t, strings.HasSuffix(raw, "two"))
}

func TestEncodeUserFramingSuppressesAutomatic(t *testing.T) {
	resp := NewResponse()
	resp.Header("Content-Length", "5").BodyString("hello")

	raw := string(resp.Encode(nil))
	lines, body := splitEncoded(t, raw)

	assert.Equal(t, 1, strings.Count(raw, "Content-Length:"))
	assert.Equal(t, "Content-Length: 5", lines[3])
	assert.Equal(t, "hello", body)

	chunked := NewResponse()
	chunked.Header("Transfer-Encoding", "chunked")
	raw = string(chunked.Encode(nil))
	assert.NotContains(t, raw, "Content-Length:")
}

func TestStatusCodeReasonFallback(t *testing.T) {
	resp := NewResponse()
	resp.StatusCode(StatusNotFound, "")
	assert.Equal(t, "Not Found", resp.Reason)

	resp.StatusCode(StatusOK, "Custom")
	assert.Equal(t, "Custom", resp.Reason)

	resp.StatusCode(799, "")
	assert.Equal(t, "Unknown", resp.Reason)
}

func TestEncodeError(t *testing.T) {
	lines, body := splitEncoded(t, string(EncodeError(errors.New("boom"), nil)))

	assert.Equal(t, "HTTP/1.1 500 Internal Server Error", lines[0])
	assert.Equal(t, "Server: karics", lines[1])
	assert.Equal(t, "Content-Length: 4", lines[3])
	assert.Equal(t, "boom", body)
}

func TestCopyFrom(t *testing.T) {
	src := NewResponse()
	src.StatusCode(StatusAccepted, "").Header("X-A", "1").BodyString("payload")

	dst := AcquireResponse()
	defer ReleaseResponse(dst)
	dst.Header("Stale", "x").BodyString("old")

	dst.CopyFrom(src)
	assert.Equal(t, StatusAccepted, dst.Status)
	assert.Equal(t, []Header{{Name: "X-A", Value: "1"}}, dst.Headers())
	assert.Equal(t, "payload", string(dst.Body()))
}

func TestPoolReuseIsClean(t *testing.T) {
	resp := AcquireResponse()
	resp.StatusCode(StatusNotFound, "").Header("X", "y").BodyString("junk")
	ReleaseResponse(resp)

	again := AcquireResponse()
	defer ReleaseResponse(again)
	assert.Equal(t, StatusOK, again.Status)
	assert.Empty(t, again.Headers())
	assert.Empty(t, again.Body())
}
