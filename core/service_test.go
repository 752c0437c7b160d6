package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karics-io/karics/core"
	"github.com/karics-io/karics/core/http"
	"github.com/karics-io/karics/core/router"
)

func TestRouterServiceCall(t *testing.T) {
	rt := router.New()
	require.NoError(t, rt.GET("/ping", func(p router.Params) *http.Response {
		resp := http.NewResponse()
		resp.Header("X-Pong", "1").BodyString("pong")
		return resp
	}))

	svc := core.NewRouterFactory(rt).NewService(1)

	req := &http.Request{Method: "GET", Path: "/ping", Proto: "HTTP/1.1"}
	resp := http.NewResponse()
	require.NoError(t, svc.Call(req, resp))

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "pong", string(resp.Body()))
	assert.Equal(t, []http.Header{{Name: "X-Pong", Value: "1"}}, resp.Headers())
}

func TestRouterServiceMiss(t *testing.T) {
	rt := router.New()
	require.NoError(t, rt.GET("/only", func(p router.Params) *http.Response {
		return http.NewResponse()
	}))

	svc := core.NewRouterFactory(rt).NewService(1)

	req := &http.Request{Method: "GET", Path: "/absent", Proto: "HTTP/1.1"}
	resp := http.NewResponse()
	require.NoError(t, svc.Call(req, resp))
	assert.Equal(t, http.StatusNotFound, resp.Status)
}

func TestFactoryFreezesRouter(t *testing.T) {
	rt := router.New()
	require.NoError(t, rt.GET("/a", func(p router.Params) *http.Response {
		return http.NewResponse()
	}))

	core.NewRouterFactory(rt)
	assert.ErrorIs(t, rt.GET("/b", func(p router.Params) *http.Response {
		return http.NewResponse()
	}), router.ErrFrozen)
}

func TestFactoryContext(t *testing.T) {
	type appState struct{ name string }
	rt := router.New()
	state := &appState{name: "shared"}

	f := core.NewRouterFactoryWithContext(rt, state)
	svc, ok := f.NewService(7).(*core.RouterService)
	require.True(t, ok)
	assert.Same(t, state, svc.Context())
}
