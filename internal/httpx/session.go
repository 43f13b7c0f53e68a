package httpx

import (
	"fmt"
	nethttp "net/http"
	"net/http/cookiejar"
	"net/url"
)

// CredentialCookie is the cookie name the safe-route service authenticates
// against.
const CredentialCookie = "kgws_lkp"

// Session is one account's authenticated HTTP context: the shared transport
// plus a private cookie jar seeded with the account credential. The service
// may append cookies across requests; the jar accumulates them for the
// lifetime of the account's run.
type Session struct {
	client  *nethttp.Client
	jar     nethttp.CookieJar
	baseURL *url.URL
}

// NewSession creates a session for one account. The base client's transport
// is reused so connection pooling spans accounts; only the cookie jar is
// per-session.
func NewSession(base *nethttp.Client, baseURL, credential string) (*Session, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	jar.SetCookies(u, []*nethttp.Cookie{{
		Name:  CredentialCookie,
		Value: credential,
		Path:  "/",
	}})

	return &Session{
		client: &nethttp.Client{
			Transport: base.Transport,
			Jar:       jar,
		},
		jar:     jar,
		baseURL: u,
	}, nil
}

// Do executes a request with the session's cookies.
func (s *Session) Do(req *nethttp.Request) (*nethttp.Response, error) {
	return s.client.Do(req)
}

// BaseURL returns the parsed base URL the session authenticates against.
func (s *Session) BaseURL() *url.URL {
	return s.baseURL
}

// Cookies returns the cookies currently held for the given URL, for
// diagnostic dumps.
func (s *Session) Cookies(u *url.URL) []*nethttp.Cookie {
	if s.jar == nil {
		return nil
	}
	return s.jar.Cookies(u)
}

// Close releases idle connections held by the session's transport. Accounts
// run sequentially, so this is safe to call between accounts.
func (s *Session) Close() {
	s.client.CloseIdleConnections()
}
