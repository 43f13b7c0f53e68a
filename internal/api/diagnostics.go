package api

import (
	"fmt"
	nethttp "net/http"
	"strings"
)

// diagnosticBodyLimit bounds how much of a response body ends up in the log.
const diagnosticBodyLimit = 2048

// dumpDiagnostics logs the full context of a failed request: status,
// headers, truncated body, session cookies, final URL, and the redirect
// chain. decodeErr is attached when the failure was a JSON decode rather
// than a transport status.
func (c *Client) dumpDiagnostics(resp *nethttp.Response, body []byte, decodeErr error) {
	if resp == nil {
		return
	}

	event := c.logger.Error().
		Int("status", resp.StatusCode).
		Str("url", requestURL(resp))

	if decodeErr != nil {
		event = event.AnErr("decode_error", decodeErr)
	}

	headers := make([]string, 0, len(resp.Header))
	for name, values := range resp.Header {
		headers = append(headers, name+": "+strings.Join(values, ", "))
	}
	event = event.Strs("headers", headers)

	text := strings.TrimSpace(string(truncate(body, diagnosticBodyLimit)))
	if text != "" {
		event = event.Str("body", text)
	}

	if resp.Request != nil && resp.Request.URL != nil {
		cookies := c.session.Cookies(resp.Request.URL)
		pairs := make([]string, 0, len(cookies))
		for _, ck := range cookies {
			pairs = append(pairs, ck.Name+"="+redactCookie(ck.Value))
		}
		event = event.Strs("cookies", pairs)
	}

	if chain := redirectChain(resp); len(chain) > 0 {
		event = event.Strs("redirects", chain)
	}

	event.Msg("request failed")
}

// redirectChain walks the linked responses net/http keeps for followed
// redirects, oldest first.
func redirectChain(resp *nethttp.Response) []string {
	var chain []string
	for req := resp.Request; req != nil && req.Response != nil; req = req.Response.Request {
		prev := req.Response
		entry := fmt.Sprintf("%d", prev.StatusCode)
		if prev.Request != nil && prev.Request.URL != nil {
			entry = fmt.Sprintf("%d %s", prev.StatusCode, prev.Request.URL)
		}
		chain = append([]string{entry}, chain...)
	}
	return chain
}

func requestURL(resp *nethttp.Response) string {
	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	return ""
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}

// redactCookie keeps enough of a credential value to correlate log lines
// without exposing the token.
func redactCookie(v string) string {
	if len(v) <= 8 {
		return "********"
	}
	return v[:4] + "…" + v[len(v)-4:]
}
