package http

import (
	"sync/atomic"
	"time"
)

// The Date header value is formatted at most once per second; every encode
// in between reuses the cached bytes.
var cachedDate atomic.Pointer[dateEntry]

type dateEntry struct {
	unix int64
	text []byte
}

func appendDate(buf []byte) []byte {
	now := time.Now()
	unix := now.Unix()
	if e := cachedDate.Load(); e != nil && e.unix == unix {
		return append(buf, e.text...)
	}
	text := now.UTC().AppendFormat(nil, time.RFC1123)
	// RFC 7231 wants "GMT", AppendFormat emits "UTC".
	if n := len(text); n >= 3 {
		copy(text[n-3:], "GMT")
	}
	cachedDate.Store(&dateEntry{unix: unix, text: text})
	return append(buf, text...)
}
