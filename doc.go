/*
Package karics is a small HTTP/1.x server engine built around three pieces:
an incremental request parser, an ordered regex router, and a per-connection
driver that runs one goroutine per connection.

The engine reads raw bytes, feeds them to a resumable parser, dispatches
each complete request to a Service, and writes all responses produced from
one read in a single batched write, so pipelined clients get pipelined
answers.

Quick Start

	package main

	import (
	    "log"

	    "github.com/karics-io/karics/app"
	    "github.com/karics-io/karics/config"
	    "github.com/karics-io/karics/core"
	    "github.com/karics-io/karics/core/http"
	    "github.com/karics-io/karics/core/router"
	)

	func main() {
	    rt := router.New()
	    rt.GET("/", func(p router.Params) *http.Response {
	        resp := http.NewResponse()
	        resp.StatusCode(http.StatusOK, "")
	        resp.BodyString("hello")
	        return resp
	    })
	    rt.GET(`/users/(\d+)`, func(p router.Params) *http.Response {
	        resp := http.NewResponse()
	        resp.StatusCode(http.StatusOK, "")
	        resp.BodyString("user " + p[0])
	        return resp
	    })

	    application := app.New(config.Default(), core.NewRouterFactory(rt))
	    if err := application.Run(); err != nil {
	        log.Fatal(err)
	    }
	}

Modules

The module is organized as follows:

  - app: process lifecycle, admin endpoint, graceful shutdown
  - config: defaults, YAML files, environment, flags
  - core: server, connection driver, Service and ServiceFactory
  - core/http: incremental parser, Request, Response
  - core/router: ordered first-match-wins routing with regex captures
  - core/pools: byte-slice pooling for connection buffers
  - metrics: Prometheus collectors and the /metrics handler

Routes match in registration order, so register specific patterns before
broad ones. Handlers receive the regex capture groups as positional
parameters and return a complete Response; the driver owns all socket I/O.
*/
package karics
