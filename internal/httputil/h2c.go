// Package httputil holds shared HTTP plumbing for the webhook surface.
package httputil

import (
	"net/http"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// H2CHandler wraps an http.Handler with h2c support so channel
// connectors speaking unencrypted HTTP/2 can reach the webhook.
func H2CHandler(handler http.Handler) http.Handler {
	return h2c.NewHandler(handler, &http2.Server{
		MaxConcurrentStreams: 250,
		MaxReadFrameSize:     1 << 20,
	})
}
