// Package httpx builds the shared HTTP client and per-account sessions.
package httpx

import (
	nethttp "net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/saferoute/sheetfetch/internal/logging"
	"golang.org/x/net/http2"
)

// NewClient creates the HTTP client shared by all account sessions.
//
// The transport is tuned for many concurrent small requests against one
// host: large per-host connection pool, HTTP/2 multiplexing, no overall
// client timeout (each request carries its own context deadline).
//
// retryMax wires transport-level retries through retryablehttp. The tool has
// no retry policy by default, so the usual value is 0; the knob exists for
// flaky network environments.
func NewClient(retryMax int, logger *logging.Logger) *nethttp.Client {
	tr := &nethttp.Transport{
		MaxIdleConns:        128,
		MaxIdleConnsPerHost: 64,
		MaxConnsPerHost:     64,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 15 * time.Second,
		ForceAttemptHTTP2:   true,
	}
	_ = http2.ConfigureTransport(tr)

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = &nethttp.Client{Transport: tr}
	retryClient.RetryMax = retryMax
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = &retryLogger{logger: logger}

	client := retryClient.StandardClient()
	client.Timeout = 0
	return client
}

// retryLogger adapts our logger to the retryablehttp.LeveledLogger interface.
// Only warnings and errors are surfaced.
type retryLogger struct {
	logger *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	if l.logger != nil {
		l.logger.Error().Fields(keysAndValues).Msg(msg)
	}
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	if l.logger != nil {
		l.logger.Warn().Fields(keysAndValues).Msg(msg)
	}
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{})  {}
func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {}
