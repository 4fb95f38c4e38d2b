package opencollective

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"backersync/domain/entities"
	"backersync/domain/interfaces"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Only the first page is requested. Members past it are not seen by a run.
const (
	pageLimit  = 100
	pageOffset = 0
)

// Client fetches eligible backers from the Open Collective members endpoint.
// Results are cached per organization for the lifetime of the client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tierRoles  interfaces.TierRoleMap
	metrics    interfaces.SyncMetrics

	mu    sync.RWMutex
	cache map[string][]entities.Backer
	group singleflight.Group
}

// NewClient creates a new Open Collective client. metrics may be nil.
func NewClient(baseURL string, timeout time.Duration, tierRoles interfaces.TierRoleMap, metrics interfaces.SyncMetrics) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		tierRoles:  tierRoles,
		metrics:    metrics,
		cache:      make(map[string][]entities.Backer),
	}
}

// FetchBackers returns the organization's backers whose role is BACKER, whose description
// is set and whose tier is mapped, in source order. The first successful result per
// organization is returned for every later call. Failures are not cached.
func (c *Client) FetchBackers(ctx context.Context, org string) ([]entities.Backer, error) {
	if backers, ok := c.cached(org); ok {
		log.WithField("org", org).Debug("Using cached backers")
		return backers, nil
	}

	result, err, _ := c.group.Do(org, func() (interface{}, error) {
		// Another caller may have filled the cache while we waited
		if backers, ok := c.cached(org); ok {
			return backers, nil
		}

		members, err := c.fetchMembers(ctx, org)
		if err != nil {
			return nil, err
		}

		backers := c.filterEligible(members)

		c.mu.Lock()
		c.cache[org] = backers
		c.mu.Unlock()

		log.WithFields(log.Fields{
			"org":      org,
			"members":  len(members),
			"eligible": len(backers),
		}).Info("Fetched Open Collective members")

		if c.metrics != nil {
			c.metrics.RecordBackersFetched(len(backers))
		}
		return backers, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]entities.Backer), nil
}

// cached returns the memoized backers for org
func (c *Client) cached(org string) ([]entities.Backer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	backers, ok := c.cache[org]
	return backers, ok
}

// membersURL builds the members endpoint URL for an organization
func (c *Client) membersURL(org string) string {
	query := url.Values{}
	query.Set("limit", fmt.Sprint(pageLimit))
	query.Set("offset", fmt.Sprint(pageOffset))
	return fmt.Sprintf("%s/%s/members.json?%s", c.baseURL, url.PathEscape(org), query.Encode())
}

// fetchMembers performs the single members request
func (c *Client) fetchMembers(ctx context.Context, org string) ([]Member, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.membersURL(org), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build members request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch members for %s: %w", org, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("members request for %s returned %s: %s", org, resp.Status, body)
	}

	var members []Member
	if err := json.NewDecoder(resp.Body).Decode(&members); err != nil {
		return nil, fmt.Errorf("failed to decode members for %s: %w", org, err)
	}

	return members, nil
}

// filterEligible keeps paying backers with a description and a mapped tier
func (c *Client) filterEligible(members []Member) []entities.Backer {
	backers := make([]entities.Backer, 0, len(members))
	for _, m := range members {
		backer := m.ToEntity()
		if !backer.IsBacker() || backer.Description == nil || backer.Tier == nil {
			continue
		}
		if !c.tierRoles.Contains(*backer.Tier) {
			continue
		}
		backers = append(backers, backer)
	}
	return backers
}
