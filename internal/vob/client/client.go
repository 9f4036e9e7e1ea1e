// Package client provides the HTTP client for the VerifyTX benefits
// verification API. The client owns its bearer token cache, so credentials
// and refresh state are per-instance rather than process-wide.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"rcm_backend/platform/apperr"
	"rcm_backend/platform/logger"
)

const requestTimeout = 30 * time.Second

// tokenSafety is subtracted from the configured TTL so the token is refreshed
// before the upstream actually rejects it.
const tokenSafety = time.Minute

// Client calls the VerifyTX API. Safe for concurrent use; the token cache is
// guarded by a mutex and refreshed lazily on the next call after expiry.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	apiSecret  string
	tokenTTL   time.Duration
	log        *logger.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time

	// now is swappable in tests.
	now func() time.Time
}

// New creates a VerifyTX client. tokenTTL is how long an issued bearer token
// stays valid upstream (about 55 minutes for VerifyTX).
func New(baseURL, apiKey, apiSecret string, tokenTTL time.Duration, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		tokenTTL:   tokenTTL,
		log:        log,
		now:        time.Now,
	}
}

// VerifyParams identifies the member to verify.
type VerifyParams struct {
	FirstName   string
	LastName    string
	DateOfBirth time.Time
	MemberID    string
	PayerID     string
}

// VerificationResult is the normalized upstream verification record. RawPayload
// preserves the untouched upstream response for audit.
type VerificationResult struct {
	UpstreamID        string
	Status            string
	PayerName         string
	PlanType          string
	CopayCents        *int64
	CoinsurancePct    *int
	DeductibleCents   *int64
	DeductibleMet     *int64
	OOPMaxCents       *int64
	OOPMetCents       *int64
	PriorAuthRequired bool
	NetworkStatus     string
	PolicyStatus      string
	EffectiveDate     *time.Time
	TermDate          *time.Time
	RawPayload        json.RawMessage
}

// Payer is one entry from payer search.
type Payer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type authResponse struct {
	Token string `json:"token"`
}

type apiVerification struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Payer       string `json:"payer"`
	PlanType    string `json:"planType"`
	Copay       *int64 `json:"copayCents"`
	Coinsurance *int   `json:"coinsurancePct"`
	Deductible  *int64 `json:"deductibleCents"`
	DeductMet   *int64 `json:"deductibleMetCents"`
	OOPMax      *int64 `json:"oopMaxCents"`
	OOPMet      *int64 `json:"oopMetCents"`
	PriorAuth   bool   `json:"priorAuthRequired"`
	Network     string `json:"networkStatus"`
	Policy      string `json:"policyStatus"`
	Effective   string `json:"effectiveDate"`
	Term        string `json:"termDate"`
}

// bearerToken returns a cached token or authenticates for a fresh one.
func (c *Client) bearerToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	body, err := json.Marshal(map[string]string{
		"apiKey":    c.apiKey,
		"apiSecret": c.apiSecret,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("verifytx auth request failed", "error", err)
		return "", apperr.Wrap(apperr.KindUnavailable, "verification service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", apperr.Unauthorized("verification credentials rejected")
	}
	if resp.StatusCode != http.StatusOK {
		return "", apperr.Unavailable(fmt.Sprintf("verification auth failed: status %d", resp.StatusCode))
	}

	var auth authResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return "", apperr.Wrap(apperr.KindUnavailable, "verification auth response malformed", err)
	}
	if auth.Token == "" {
		return "", apperr.Unavailable("verification auth returned empty token")
	}

	c.token = auth.Token
	c.tokenExpiry = c.now().Add(c.tokenTTL - tokenSafety)
	return c.token, nil
}

// invalidateToken clears the cache so the next call re-authenticates.
func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// Verify runs a new benefits verification for the member.
func (c *Client) Verify(ctx context.Context, params VerifyParams) (VerificationResult, error) {
	body := map[string]string{
		"firstName": params.FirstName,
		"lastName":  params.LastName,
		"dob":       params.DateOfBirth.Format("2006-01-02"),
		"memberId":  params.MemberID,
		"payerId":   params.PayerID,
	}
	return c.doVerification(ctx, http.MethodPost, "/api/vobs", body)
}

// Reverify re-runs an existing upstream verification by its id.
func (c *Client) Reverify(ctx context.Context, vobID string) (VerificationResult, error) {
	path := "/api/vobs/" + url.PathEscape(vobID) + "/reverify"
	return c.doVerification(ctx, http.MethodPost, path, nil)
}

// ExportPDF downloads the upstream PDF rendering of a verification.
func (c *Client) ExportPDF(ctx context.Context, vobID string) ([]byte, error) {
	path := "/api/vobs/" + url.PathEscape(vobID) + "/export"
	resp, err := c.doAuthorized(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Unavailable(fmt.Sprintf("verification export failed: status %d", resp.StatusCode))
	}
	return io.ReadAll(resp.Body)
}

// SearchPayers looks up payers matching the query.
func (c *Client) SearchPayers(ctx context.Context, query string) ([]Payer, error) {
	path := "/api/payers?q=" + url.QueryEscape(query)
	resp, err := c.doAuthorized(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Unavailable(fmt.Sprintf("payer search failed: status %d", resp.StatusCode))
	}

	var payers []Payer
	if err := json.NewDecoder(resp.Body).Decode(&payers); err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "payer search response malformed", err)
	}
	return payers, nil
}

func (c *Client) doVerification(ctx context.Context, method, path string, body any) (VerificationResult, error) {
	resp, err := c.doAuthorized(ctx, method, path, body)
	if err != nil {
		return VerificationResult{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return VerificationResult{}, apperr.Wrap(apperr.KindUnavailable, "verification response unreadable", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.log.Error("verifytx upstream error", "status", resp.StatusCode, "path", path)
		return VerificationResult{}, apperr.Unavailable(fmt.Sprintf("verification failed: status %d: %s", resp.StatusCode, truncate(raw, 200)))
	}

	var api apiVerification
	if err := json.Unmarshal(raw, &api); err != nil {
		return VerificationResult{}, apperr.Wrap(apperr.KindUnavailable, "verification response malformed", err)
	}

	result := VerificationResult{
		UpstreamID:        api.ID,
		Status:            api.Status,
		PayerName:         api.Payer,
		PlanType:          api.PlanType,
		CopayCents:        api.Copay,
		CoinsurancePct:    api.Coinsurance,
		DeductibleCents:   api.Deductible,
		DeductibleMet:     api.DeductMet,
		OOPMaxCents:       api.OOPMax,
		OOPMetCents:       api.OOPMet,
		PriorAuthRequired: api.PriorAuth,
		NetworkStatus:     api.Network,
		PolicyStatus:      api.Policy,
		EffectiveDate:     parseDate(api.Effective),
		TermDate:          parseDate(api.Term),
		RawPayload:        json.RawMessage(raw),
	}
	return result, nil
}

// doAuthorized performs an authenticated request, re-authenticating once if
// the cached token has been invalidated upstream.
func (c *Client) doAuthorized(ctx context.Context, method, path string, body any) (*http.Response, error) {
	for attempt := 0; attempt < 2; attempt++ {
		token, err := c.bearerToken(ctx)
		if err != nil {
			return nil, err
		}

		var reader io.Reader
		if body != nil {
			encoded, err := json.Marshal(body)
			if err != nil {
				return nil, err
			}
			reader = bytes.NewReader(encoded)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.log.Error("verifytx request failed", "error", err, "path", path)
			return nil, apperr.Wrap(apperr.KindUnavailable, "verification service unreachable", err)
		}

		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			resp.Body.Close()
			c.invalidateToken()
			continue
		}
		return resp, nil
	}
	return nil, apperr.Unauthorized("verification token rejected after refresh")
}

func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
