package mapillary

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/handiism/streetgrab/internal/http"
	"github.com/handiism/streetgrab/internal/mapillary/dto"
	"github.com/handiism/streetgrab/internal/model"
	"github.com/handiism/streetgrab/internal/retry"
)

// DefaultGraphURL is the Mapillary Graph API root.
const DefaultGraphURL = "https://graph.mapillary.com"

const (
	DefaultPageSize    = 500
	DefaultMaxImages   = 10000
	DefaultMaxAttempts = 5
	DefaultRetryDelay  = 2 * time.Second
)

// ErrMissingToken is returned when no access token is configured.
var ErrMissingToken = errors.New("mapillary access token missing")

// Options configures a Client. Zero values fall back to the defaults above.
type Options struct {
	Token       string
	BaseURL     string
	PageSize    int
	MaxImages   int
	MaxAttempts int
	RetryDelay  time.Duration
	Logger      *zap.Logger

	// OnPage, if set, is called after every page with the running total.
	OnPage func(page, total int)

	// OnRetry, if set, is called before a failed page request is retried.
	OnRetry func(attempt int, err error)
}

// Result is the outcome of FetchImages.
type Result struct {
	Images []model.ImageRecord

	// Pages is the number of pages fetched.
	Pages int

	// Truncated is set when the accumulated count exceeded the cap.
	Truncated bool
}

// Client talks to the /images search endpoint.
type Client struct {
	http *http.Client
	opts Options
}

// NewClient creates a Client. It fails with ErrMissingToken before any
// network activity when opts.Token is empty.
func NewClient(httpClient *http.Client, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, ErrMissingToken
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultGraphURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.MaxImages <= 0 {
		opts.MaxImages = DefaultMaxImages
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Client{http: httpClient, opts: opts}, nil
}

// FetchImages returns every image inside box, up to the soft cap.
func (c *Client) FetchImages(ctx context.Context, box model.BoundingBox) (*Result, error) {
	res := &Result{}
	cursor := ""

	for {
		page, err := c.fetchPage(ctx, box, cursor)
		if err != nil {
			return nil, fmt.Errorf("fetch metadata page %d: %w", res.Pages+1, err)
		}
		res.Pages++

		for _, img := range page.Data {
			res.Images = append(res.Images, img.ToImageRecord())
		}

		c.opts.Logger.Debug("fetched metadata page",
			zap.Int("page", res.Pages),
			zap.Int("records", len(page.Data)),
			zap.Int("total", len(res.Images)))
		if c.opts.OnPage != nil {
			c.opts.OnPage(res.Pages, len(res.Images))
		}

		if len(res.Images) > c.opts.MaxImages {
			res.Truncated = true
			return res, nil
		}

		cursor = page.NextCursor()
		if cursor == "" {
			return res, nil
		}
	}
}

// MaxImages returns the configured soft cap.
func (c *Client) MaxImages() int {
	return c.opts.MaxImages
}

func (c *Client) fetchPage(ctx context.Context, box model.BoundingBox, cursor string) (*dto.JSONPage, error) {
	params := url.Values{
		"access_token": {c.opts.Token},
		"bbox":         {box.String()},
		"fields":       {dto.Fields},
		"limit":        {strconv.Itoa(c.opts.PageSize)},
	}
	if cursor != "" {
		params.Set("after", cursor)
	}

	var page dto.JSONPage
	err := retry.Do(ctx, retry.Policy{
		Delay:       c.opts.RetryDelay,
		MaxAttempts: c.opts.MaxAttempts,
		Retryable:   http.IsTransient,
		OnRetry: func(attempt int, err error) {
			c.opts.Logger.Debug("retrying metadata request", zap.Int("attempt", attempt), zap.Error(err))
			if c.opts.OnRetry != nil {
				c.opts.OnRetry(attempt, err)
			}
		},
	}, func(ctx context.Context) error {
		page = dto.JSONPage{}
		return c.http.GetJSON(ctx, c.opts.BaseURL+"/images", params, &page)
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}
