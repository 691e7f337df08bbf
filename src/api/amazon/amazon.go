package amazon

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"time"
)

// Details is the enrichment result. Every field may be a placeholder; a
// submission stays valid and displayable either way.
type Details struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	CoverURL string `json:"cover_url"`
}

var asinPattern = regexp.MustCompile(`^[A-Z0-9]{10}$`)

// ValidASIN reports whether s is a well-formed 10-character catalog ID.
func ValidASIN(s string) bool {
	return asinPattern.MatchString(s)
}

// Placeholder synthesizes display metadata from a bare ASIN.
func Placeholder(asin string) Details {
	return Details{Title: "Book " + asin, Author: "Unknown Author"}
}

// Client looks up book metadata from an external catalog endpoint. Lookups are
// best-effort: a uniform timeout bounds every call and failures degrade to
// placeholder metadata rather than blocking submission.
type Client struct {
	endpoint string
	http     *http.Client
}

const lookupTimeout = 10 * time.Second

// NewClient builds a catalog client. endpoint may be empty, in which case only
// the static fallback table is consulted.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: lookupTimeout},
	}
}

// Enrich resolves display metadata for an ASIN. It never fails: known books
// come from the fallback table, unknown ones from the catalog endpoint, and
// anything else gets a placeholder title derived from the ASIN.
func (c *Client) Enrich(ctx context.Context, asin string) Details {
	if d, ok := fallbackData[asin]; ok {
		return d
	}

	if c.endpoint != "" {
		if d, err := c.lookup(ctx, asin); err == nil {
			return d
		} else {
			log.Printf("catalog lookup for %s failed: %v", asin, err)
		}
	}

	return Placeholder(asin)
}

func (c *Client) lookup(ctx context.Context, asin string) (Details, error) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	u := fmt.Sprintf("%s?asin=%s", c.endpoint, url.QueryEscape(asin))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Details{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Details{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Details{}, fmt.Errorf("catalog returned %d", resp.StatusCode)
	}

	var d Details
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		return Details{}, err
	}
	if d.Title == "" {
		return Details{}, fmt.Errorf("catalog has no data for %s", asin)
	}
	return d, nil
}
