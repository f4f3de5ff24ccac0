// Package catalog fetches stellar parameters and dispositions from the NASA
// Exoplanet Archive TAP service.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/model"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/pkg/logger"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/pkg/metrics"
)

// Archive tables queried by the client.
const (
	TableStellar    = "q1_q17_dr25_stellar"
	TableKOI        = "q1_q17_dr25_koi"
	TableCumulative = "cumulative"
)

const (
	defaultBaseURL   = "https://exoplanetarchive.ipac.caltech.edu/TAP/sync"
	defaultTimeout   = 10 * time.Second
	defaultAttempts  = 3
	defaultBaseDelay = 500 * time.Millisecond
	maxBodyBytes     = 64 << 20
)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another TAP sync endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRetry sets retry attempts and the first back-off delay.
func WithRetry(attempts int, base time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.retry.MaxAttempts = attempts
		}
		if base > 0 {
			c.retry.BaseDelay = base
		}
	}
}

// WithCache enables response caching.
func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// Client queries the archive.
type Client struct {
	baseURL string
	http    *http.Client
	retry   RetryConfig
	cache   Cache
}

// New creates a client with defaults suitable for the public archive.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		retry:   RetryConfig{MaxAttempts: defaultAttempts, BaseDelay: defaultBaseDelay},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// KeplerID parses star ids such as "757450" or "KIC 757450".
func KeplerID(starID string) (int64, error) {
	s := strings.TrimSpace(strings.ToUpper(starID))
	if rest, ok := strings.CutPrefix(s, "KIC"); ok {
		s = strings.TrimLeft(rest, " -_")
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidStarID, starID)
	}
	return id, nil
}

type stellarRow struct {
	KepID  int64    `json:"kepid"`
	Teff   *float64 `json:"teff"`
	Logg   *float64 `json:"logg"`
	FeH    *float64 `json:"feh"`
	Mass   *float64 `json:"mass"`
	Radius *float64 `json:"radius"`
}

// Attributes returns the stellar parameters of one star.
func (c *Client) Attributes(ctx context.Context, starID string) (model.StarAttributes, error) {
	id, err := KeplerID(starID)
	if err != nil {
		return model.StarAttributes{}, err
	}
	q := fmt.Sprintf("select kepid,teff,logg,feh,mass,radius from %s where kepid=%d", TableStellar, id)
	var rows []stellarRow
	if err := c.query(ctx, TableStellar, q, &rows); err != nil {
		return model.StarAttributes{}, err
	}
	if len(rows) == 0 {
		return model.StarAttributes{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	r := rows[0]
	return model.StarAttributes{
		Teff: ptr(r.Teff), Radius: ptr(r.Radius), Mass: ptr(r.Mass), Logg: ptr(r.Logg), FeH: ptr(r.FeH),
	}, nil
}

type dispositionRow struct {
	KepID       int64  `json:"kepid"`
	Disposition string `json:"koi_disposition"`
}

// CandidateCount returns how many KOIs of the star are confirmed or candidates.
func (c *Client) CandidateCount(ctx context.Context, starID string) (int, error) {
	id, err := KeplerID(starID)
	if err != nil {
		return 0, err
	}
	q := fmt.Sprintf("select kepid,koi_disposition from %s where kepid=%d", TableKOI, id)
	var rows []dispositionRow
	if err := c.query(ctx, TableKOI, q, &rows); err != nil {
		return 0, err
	}
	n := 0
	for _, r := range rows {
		if l, ok := model.LabelFromDisposition(r.Disposition); ok && l == model.LabelPositive {
			n++
		}
	}
	return n, nil
}

// Label binarizes CandidateCount: any confirmed or candidate KOI is positive.
func (c *Client) Label(ctx context.Context, starID string) (model.Label, error) {
	n, err := c.CandidateCount(ctx, starID)
	if err != nil {
		return model.LabelUnknown, err
	}
	if n > 0 {
		return model.LabelPositive, nil
	}
	return model.LabelNegative, nil
}

// Dispositions loads the cumulative KOI table as star id -> label. A star
// with any positive KOI is positive; rows with other dispositions are ignored.
func (c *Client) Dispositions(ctx context.Context) (map[string]model.Label, error) {
	q := fmt.Sprintf("select kepid,koi_disposition from %s", TableCumulative)
	var rows []dispositionRow
	if err := c.query(ctx, TableCumulative, q, &rows); err != nil {
		return nil, err
	}
	out := make(map[string]model.Label, len(rows))
	for _, r := range rows {
		l, ok := model.LabelFromDisposition(r.Disposition)
		if !ok {
			continue
		}
		key := strconv.FormatInt(r.KepID, 10)
		if prev, seen := out[key]; !seen || prev == model.LabelNegative {
			out[key] = l
		}
	}
	return out, nil
}

func (c *Client) query(ctx context.Context, table, adql string, dst any) error {
	key := table + "|" + adql
	if c.cache != nil {
		if body, ok := c.cache.Get(key); ok {
			metrics.RecordCatalogCache(true)
			return decode(body, dst)
		}
		metrics.RecordCatalogCache(false)
	}

	var body []byte
	err := c.retry.Do(ctx, "catalog "+table, func(ctx context.Context) error {
		start := time.Now()
		b, err := c.fetch(ctx, adql)
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.RecordCatalogRequest(table, outcome, time.Since(start))
		body = b
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if err := decode(body, dst); err != nil {
		return err
	}
	if c.cache != nil {
		if err := c.cache.Set(key, body); err != nil {
			logger.Get().Warn(ctx, "catalog cache write failed", logger.String("table", table), logger.Error(err))
		}
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, adql string) ([]byte, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, permanent{fmt.Errorf("parse base url: %w", err)}
	}
	v := u.Query()
	v.Set("query", adql)
	v.Set("format", "json")
	u.RawQuery = v.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, permanent{err}
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	case resp.StatusCode >= 300:
		return nil, permanent{fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}
	return body, nil
}

func decode(body []byte, dst any) error {
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrUpstream, err)
	}
	return nil
}

func ptr(v *float64) model.Optional {
	if v == nil {
		return model.None()
	}
	return model.Some(*v)
}
