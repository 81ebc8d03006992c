// internal/adapters/yelp/client.go
package yelp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"review_enrichment/internal/adapters/observability"
	"review_enrichment/internal/adapters/transport"
	"review_enrichment/internal/domain"
)

const service = "yelp"

type Client struct {
	base    string
	hc      *http.Client
	rl      *rate.Limiter
	timeout time.Duration
	creds   clientcredentials.Config

	mu  sync.Mutex
	tok *oauth2.Token
}

// New builds a directory client. Missing credentials are not an error here;
// Authenticate reports them as an AuthError.
func New(base, clientID, clientSecret string, rps int, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid directory base URL %q", base)
	}
	if rps <= 0 {
		rps = 5
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	base = strings.TrimRight(base, "/")
	return &Client{
		base:    base,
		hc:      &http.Client{Timeout: timeout},
		rl:      rate.NewLimiter(rate.Limit(rps), rps),
		timeout: timeout,
		creds: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     base + "/oauth2/token",
			AuthStyle:    oauth2.AuthStyleInParams,
		},
	}, nil
}

// Authenticate exchanges the client id/secret for a bearer token
// (client-credentials grant). The token is cached until it expires. Rejected
// credentials come back as *domain.AuthError, any other failure as
// *domain.UpstreamError.
func (c *Client) Authenticate(ctx context.Context) (*oauth2.Token, error) {
	if c.creds.ClientID == "" || c.creds.ClientSecret == "" {
		return nil, &domain.AuthError{Service: service, Err: errors.New("client id/secret not set")}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tok.Valid() {
		return c.tok, nil
	}

	start := time.Now()
	tok, err := c.creds.Token(context.WithValue(ctx, oauth2.HTTPClient, c.hc))
	if err != nil {
		status := 0
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			status = re.Response.StatusCode
		}
		observability.ObserveExternal(service, "token", status, time.Since(start))
		switch status {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return nil, &domain.AuthError{Service: service, Status: status, Err: err}
		}
		// transport failures and non-credential statuses are upstream trouble
		return nil, &domain.UpstreamError{Service: service, Endpoint: "token", Status: status, Err: err}
	}
	observability.ObserveExternal(service, "token", http.StatusOK, time.Since(start))
	c.tok = tok
	return tok, nil
}

func (c *Client) FetchBusiness(ctx context.Context, id string) (domain.BusinessPayload, error) {
	var out domain.BusinessPayload
	err := c.get(ctx, "business", "/v3/businesses/"+url.PathEscape(id), &out)
	return out, err
}

func (c *Client) FetchReviews(ctx context.Context, id string) (domain.ReviewList, error) {
	var out domain.ReviewList
	err := c.get(ctx, "reviews", "/v3/businesses/"+url.PathEscape(id)+"/reviews", &out)
	return out, err
}

func (c *Client) SearchBusinesses(ctx context.Context, term, location string, limit int) (domain.SearchResult, error) {
	q := url.Values{}
	q.Set("term", term)
	q.Set("location", location)
	q.Set("limit", strconv.Itoa(limit))
	var out domain.SearchResult
	err := c.get(ctx, "search", "/v3/businesses/search?"+q.Encode(), &out)
	return out, err
}

// ---- Internals ----

func (c *Client) get(ctx context.Context, endpoint, path string, out any) error {
	tok, err := c.Authenticate(ctx)
	if err != nil {
		return err
	}
	// client-side rate limiting
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err = transport.Do(ctx, c.hc, transport.Request{
		Service:  service,
		Endpoint: endpoint,
		Method:   http.MethodGet,
		URL:      c.base + path,
		Header:   http.Header{"Authorization": {tok.Type() + " " + tok.AccessToken}},
	}, out)
	return c.classify(endpoint, err)
}

func (c *Client) classify(endpoint string, err error) error {
	if err == nil {
		return nil
	}
	var se *transport.StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case http.StatusNotFound:
			return fmt.Errorf("%s %s: %w", service, endpoint, domain.ErrNotFound)
		case http.StatusUnauthorized, http.StatusForbidden:
			// drop the cached token so the next call re-authenticates
			c.mu.Lock()
			c.tok = nil
			c.mu.Unlock()
			return &domain.AuthError{Service: service, Status: se.Code, Err: se}
		}
		return &domain.UpstreamError{Service: service, Endpoint: endpoint, Status: se.Code, Err: se}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &domain.UpstreamError{Service: service, Endpoint: endpoint, Err: err}
}
