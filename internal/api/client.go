// Package api implements the safe-route claims API client: travel-sheet
// listing, attachment resolution, and the two-hop document download.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/saferoute/sheetfetch/internal/httpx"
	"github.com/saferoute/sheetfetch/internal/logging"
	"github.com/saferoute/sheetfetch/internal/models"
)

// maxListLimit caps the doubling loop in ListTravelSheets. The effective
// limit is always a power-of-two multiple of the initial limit, so the cap
// bounds the loop at ~20 iterations even for an absurd dataset.
const maxListLimit = 1 << 20

// Client talks to the claims API through one account's session.
type Client struct {
	session   *httpx.Session
	baseURL   string
	listLimit int
	timeout   time.Duration
	logger    *logging.Logger
}

// NewClient creates a client bound to one account session. listLimit is the
// initial page size for the travel-sheet listing; timeout applies per
// request (0 disables the deadline).
func NewClient(session *httpx.Session, listLimit int, timeout time.Duration, logger *logging.Logger) *Client {
	if listLimit < 1 {
		listLimit = 1000
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Client{
		session:   session,
		baseURL:   strings.TrimSuffix(session.BaseURL().String(), "/"),
		listLimit: listLimit,
		timeout:   timeout,
		logger:    logger,
	}
}

// ListTravelSheets returns the UUIDs of all travel sheets for the account,
// newest outgoing date first.
//
// The listing endpoint is paginated by limit only, so the fetcher asks for
// one page and, when the page comes back full (size == limit), doubles the
// limit and re-fetches from scratch until a partial page proves the full set
// was captured. Records between attempts may shift; the final attempt is a
// single consistent response. Records without a uuid are skipped.
func (c *Client) ListTravelSheets(ctx context.Context) ([]string, error) {
	limit := c.listLimit
	for {
		uuids, full, err := c.fetchSheetPage(ctx, limit)
		if err != nil {
			return nil, err
		}
		if full && limit < maxListLimit {
			c.logger.Debug().
				Int("limit", limit).
				Msg("listing page full, doubling limit and refetching")
			limit *= 2
			continue
		}
		return uuids, nil
	}
}

func (c *Client) fetchSheetPage(ctx context.Context, limit int) ([]string, bool, error) {
	path := fmt.Sprintf("/api/claim/claims?limit=%d&sort=-outgoing_date", limit)
	body, resp, err := c.getJSON(ctx, path)
	if err != nil {
		return nil, false, fmt.Errorf("list travel sheets: %w", err)
	}

	var page models.TravelSheetPage
	if err := json.Unmarshal(body, &page); err != nil {
		c.dumpDiagnostics(resp, body, err)
		return nil, false, fmt.Errorf("list travel sheets: %w: %w", ErrMalformedResponse, err)
	}

	uuids := make([]string, 0, len(page.Data))
	for _, sheet := range page.Data {
		if sheet.UUID == "" {
			continue
		}
		uuids = append(uuids, sheet.UUID)
	}
	return uuids, len(page.Data) == limit, nil
}

// SpecialProjectUUID resolves a travel sheet to its attached special-project
// UUID. An empty string with a nil error means the sheet has no attachment —
// that covers both an empty candidate list and a first candidate without the
// field. Transport and decode failures are real errors; the caller decides
// whether they abort the batch.
func (c *Client) SpecialProjectUUID(ctx context.Context, claimUUID string) (string, error) {
	path := "/api/claim/special_projects?claim_uuid=" + url.QueryEscape(claimUUID)
	body, resp, err := c.getJSON(ctx, path)
	if err != nil {
		return "", fmt.Errorf("resolve attachment for %s: %w", claimUUID, err)
	}

	var refs []models.SpecialProjectRef
	if err := json.Unmarshal(body, &refs); err != nil {
		c.dumpDiagnostics(resp, body, err)
		return "", fmt.Errorf("resolve attachment for %s: %w: %w", claimUUID, ErrMalformedResponse, err)
	}
	if len(refs) == 0 {
		return "", nil
	}
	return refs[0].SpecialProjectUUID, nil
}

// StoreUUID requests the download description for a special project and
// extracts the docstore identifier from it. This is the first hop of the
// two-hop download resolution.
func (c *Client) StoreUUID(ctx context.Context, projectUUID string) (string, error) {
	path := "/api/claim/special_project/download?special_project_uuid=" + url.QueryEscape(projectUUID)
	body, resp, err := c.getJSON(ctx, path)
	if err != nil {
		return "", fmt.Errorf("download description for %s: %w", projectUUID, err)
	}

	var desc models.DownloadDescriptor
	if err := json.Unmarshal(body, &desc); err != nil {
		c.dumpDiagnostics(resp, body, err)
		return "", fmt.Errorf("download description for %s: %w: %w", projectUUID, ErrMalformedResponse, err)
	}
	if desc.StoreUUID == "" {
		c.dumpDiagnostics(resp, body, nil)
		return "", fmt.Errorf("download description for %s: %w: missing store_uuid", projectUUID, ErrMalformedResponse)
	}
	return desc.StoreUUID, nil
}

// OpenStore requests the docstore resource, the second hop of the download
// resolution. The response carries the filename in its Content-Disposition
// header and the file bytes in its body. The caller must close the body and
// call cancel once the stream is drained.
func (c *Client) OpenStore(ctx context.Context, storeUUID string) (*nethttp.Response, context.CancelFunc, error) {
	req, cancel, err := c.newRequest(ctx, "/api/docstore/"+url.PathEscape(storeUUID))
	if err != nil {
		return nil, nil, fmt.Errorf("open docstore %s: %w", storeUUID, err)
	}

	resp, err := c.session.Do(req)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("open docstore %s: %w", storeUUID, err)
	}

	if resp.StatusCode != nethttp.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, diagnosticBodyLimit))
		resp.Body.Close()
		c.dumpDiagnostics(resp, body, nil)
		cancel()
		return nil, nil, fmt.Errorf("open docstore %s: %w: status %d", storeUUID, ErrUnexpectedStatus, resp.StatusCode)
	}

	return resp, cancel, nil
}

// getJSON performs a GET expected to return a JSON body, reads the body
// fully, and reports non-2xx statuses with full diagnostics.
func (c *Client) getJSON(ctx context.Context, path string) ([]byte, *nethttp.Response, error) {
	req, cancel, err := c.newRequest(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	defer cancel()

	resp, err := c.session.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.dumpDiagnostics(resp, body, nil)
		return nil, resp, fmt.Errorf("%w: status %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	return body, resp, nil
}

func (c *Client) newRequest(ctx context.Context, path string) (*nethttp.Request, context.CancelFunc, error) {
	reqCtx := ctx
	cancel := context.CancelFunc(func() {})
	if c.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
	}

	req, err := nethttp.NewRequestWithContext(reqCtx, nethttp.MethodGet, c.baseURL+path, nil)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, cancel, nil
}
