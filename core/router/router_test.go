package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karics-io/karics/core/http"
)

func textHandler(body string) Handler {
	return func(p Params) *http.Response {
		resp := http.NewResponse()
		resp.BodyString(body)
		return resp
	}
}

func TestFirstMatchWins(t *testing.T) {
	r := New()
	require.NoError(t, r.GET(`/users/new`, textHandler("new")))
	require.NoError(t, r.GET(`/users/(\w+)`, textHandler("capture")))

	resp := r.Handle("GET", "/users/new")
	assert.Equal(t, "new", string(resp.Body()))

	resp = r.Handle("GET", "/users/42")
	assert.Equal(t, "capture", string(resp.Body()))
}

func TestDuplicateRegistrationShadowed(t *testing.T) {
	r := New()
	require.NoError(t, r.GET("/dup", textHandler("first")))
	require.NoError(t, r.GET("/dup", textHandler("second")))

	assert.Equal(t, 2, r.Len())
	resp := r.Handle("GET", "/dup")
	assert.Equal(t, "first", string(resp.Body()))
}

func TestCaptureGroups(t *testing.T) {
	r := New()
	var got Params
	require.NoError(t, r.GET(`/users/(\d+)/posts/(\d+)`, func(p Params) *http.Response {
		got = p
		return http.NewResponse()
	}))

	handler, params, err := r.Match("GET", "/users/42/posts/7")
	require.NoError(t, err)
	assert.Equal(t, Params{"42", "7"}, params)

	handler(params)
	assert.Equal(t, Params{"42", "7"}, got)
}

func TestCaptureSingleGroup(t *testing.T) {
	r := New()
	require.NoError(t, r.GET(`/users/(\d+)`, textHandler("u")))

	_, params, err := r.Match("GET", "/users/42")
	require.NoError(t, err)
	assert.Equal(t, Params{"42"}, params)
}

func TestRegexAnchoring(t *testing.T) {
	r := New()
	require.NoError(t, r.GET(`/users/(\d+)`, textHandler("u")))

	_, _, err := r.Match("GET", "/prefix/users/42")
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = r.Match("GET", "/users/42/suffix")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMatchKinds(t *testing.T) {
	r := New()
	require.NoError(t, r.Route("GET", "/exact", Exact, textHandler("e")))
	require.NoError(t, r.Route("GET", "/static/", Prefix, textHandler("p")))

	_, _, err := r.Match("GET", "/exact")
	assert.NoError(t, err)
	_, _, err = r.Match("GET", "/exact/more")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = r.Match("GET", "/static/css/site.css")
	assert.NoError(t, err)
	_, _, err = r.Match("GET", "/stat")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTrailingSlashSignificant(t *testing.T) {
	r := New()
	require.NoError(t, r.Route("GET", "/users", Exact, textHandler("u")))

	_, _, err := r.Match("GET", "/users")
	assert.NoError(t, err)
	_, _, err = r.Match("GET", "/users/")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQueryStringIgnored(t *testing.T) {
	r := New()
	require.NoError(t, r.GET(`/search/(\w+)`, textHandler("s")))

	_, params, err := r.Match("GET", "/search/go?page=2&sort=asc")
	require.NoError(t, err)
	assert.Equal(t, Params{"go"}, params)
}

func TestMethodDispatch(t *testing.T) {
	r := New()
	require.NoError(t, r.GET("/res", textHandler("get")))
	require.NoError(t, r.POST("/res", textHandler("post")))

	assert.Equal(t, "get", string(r.Handle("GET", "/res").Body()))
	assert.Equal(t, "post", string(r.Handle("POST", "/res").Body()))
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	r := New()
	require.NoError(t, r.GET("/only", textHandler("x")))

	// A method with routes but no match is a 404.
	resp := r.Handle("GET", "/missing")
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, `{"error": "Not Found"}`, string(resp.Body()))
	ct, _ := headerValue(resp, "Content-Type")
	assert.Equal(t, "application/json", ct)

	// A method with no routes at all is a 405.
	resp = r.Handle("DELETE", "/only")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.Status)
	assert.Equal(t, `{"error": "Method Not Allowed"}`, string(resp.Body()))
}

func headerValue(resp *http.Response, name string) (string, bool) {
	for _, h := range resp.Headers() {
		if h.Name == name {
			return h.Value, true
		}
	}
	return "", false
}

func TestCompileErrorAtRegistration(t *testing.T) {
	r := New()
	err := r.GET(`/bad/(unclosed`, textHandler("x"))
	require.Error(t, err)
	assert.Equal(t, 0, r.Len())
}

func TestNilHandlerRejected(t *testing.T) {
	r := New()
	assert.ErrorIs(t, r.GET("/x", nil), ErrNilHandler)
}

func TestFreeze(t *testing.T) {
	r := New()
	require.NoError(t, r.GET("/before", textHandler("b")))
	r.Freeze()

	assert.ErrorIs(t, r.GET("/after", textHandler("a")), ErrFrozen)
	assert.Equal(t, 1, r.Len())

	// Matching still works after freeze.
	_, _, err := r.Match("GET", "/before")
	assert.NoError(t, err)
}

func BenchmarkMatchLiteral(b *testing.B) {
	r := New()
	for _, p := range []string{"/a", "/b", "/c", "/users", "/health"} {
		if err := r.Route("GET", p, Exact, textHandler("x")); err != nil {
			b.Fatal(err)
		}
	}
	r.Freeze()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, _, err := r.Match("GET", "/health"); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMatchRegex(b *testing.B) {
	r := New()
	if err := r.GET(`/users/(\d+)/posts/(\d+)`, textHandler("x")); err != nil {
		b.Fatal(err)
	}
	r.Freeze()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, _, err := r.Match("GET", "/users/42/posts/7"); err != nil {
			b.Fatal(err)
		}
	}
}

func TestAny(t *testing.T) {
	r := New()
	require.NoError(t, r.Any([]string{"GET", "POST", "PUT"}, "/multi", textHandler("m")))
	assert.Equal(t, 3, r.Len())

	for _, m := range []string{"GET", "POST", "PUT"} {
		assert.Equal(t, "m", string(r.Handle(m, "/multi").Body()))
	}
}
