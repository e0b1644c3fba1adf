// Package notion wraps the Notion API for publishing validation reports.
// Each validated idea becomes one page in a reports database; re-validating
// the same idea updates the existing page instead of creating a duplicate.
package notion

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// defaultTitleProperty is the title column of the reports database.
const defaultTitleProperty = "Name"

// Client defines the Notion operations the report publisher needs: dedupe
// lookup by idea name plus page create/refresh.
type Client interface {
	FindPageByTitle(ctx context.Context, dbID, title string) (string, bool, error)
	CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
	UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error)
}

// ClientOption configures the Notion client.
type ClientOption func(*notionClient)

// WithRateLimit overrides the default Notion rate limit (3 req/s).
func WithRateLimit(rps float64) ClientOption {
	return func(c *notionClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// WithTitleProperty overrides the title property FindPageByTitle filters on,
// for report databases whose title column is not named "Name".
func WithTitleProperty(name string) ClientOption {
	return func(c *notionClient) {
		if name != "" {
			c.titleProp = name
		}
	}
}

// notionClient implements Client by wrapping a *notionapi.Client.
type notionClient struct {
	inner     *notionapi.Client
	limiter   *rate.Limiter
	titleProp string
}

// NewClient creates a new Notion client with the given integration token.
// By default, API calls are throttled to 3 req/s (Notion's rate limit).
func NewClient(token string, opts ...ClientOption) Client {
	c := &notionClient{
		inner:     notionapi.NewClient(notionapi.Token(token)),
		limiter:   rate.NewLimiter(3, 1),
		titleProp: defaultTitleProperty,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wait blocks until the rate limiter allows one event, or ctx is cancelled.
func (c *notionClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// titleQuery builds the exact-match title filter used for dedupe lookups.
func (c *notionClient) titleQuery(title string) *notionapi.DatabaseQueryRequest {
	return &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: c.titleProp,
			RichText: &notionapi.TextFilterCondition{
				Equals: title,
			},
		},
		PageSize: 1,
	}
}

// FindPageByTitle looks up an existing page in the database whose title
// exactly matches the idea name. Returns the page ID and whether it exists.
func (c *notionClient) FindPageByTitle(ctx context.Context, dbID, title string) (string, bool, error) {
	if err := c.wait(ctx); err != nil {
		return "", false, eris.Wrap(err, "notion: rate limit")
	}
	resp, err := c.inner.Database.Query(ctx, notionapi.DatabaseID(dbID), c.titleQuery(title))
	if err != nil {
		return "", false, eris.Wrap(err, fmt.Sprintf("notion: find page %q in database %s", title, dbID))
	}
	if len(resp.Results) == 0 {
		return "", false, nil
	}
	return string(resp.Results[0].ID), true, nil
}

func (c *notionClient) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "notion: rate limit")
	}
	page, err := c.inner.Page.Create(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "notion: create page")
	}
	return page, nil
}

func (c *notionClient) UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "notion: rate limit")
	}
	page, err := c.inner.Page.Update(ctx, notionapi.PageID(pageID), req)
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("notion: update page %s", pageID))
	}
	return page, nil
}
