// Package bns resolves BNS names to Bitcoin addresses through a Stacks
// names API. The BTC address lives in the name's zonefile as a TXT record
// owned by _btc._addr.
package bns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"

	"github.com/Klingon-tech/btcsend/internal/chain"
	"github.com/Klingon-tech/btcsend/pkg/logging"
)

// Common errors
var (
	ErrNameNotFound = errors.New("name not found")
	ErrRateLimited  = errors.New("rate limited")
	ErrNoNamesAPI   = errors.New("no names API for network")
	ErrBadZonefile  = errors.New("malformed zonefile")
)

const btcAddrOwner = "_btc._addr."

// NameInfo is the subset of the names API response the resolver uses.
type NameInfo struct {
	Address    string `json:"address"`
	Blockchain string `json:"blockchain"`
	Status     string `json:"status"`
	Zonefile   string `json:"zonefile"`
}

// Client talks to one names API.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.Mutex
	cache map[string]cachedAddress
	now   func() time.Time
}

type cachedAddress struct {
	address string
	expires time.Time
}

// NewClient creates a client for the names API at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		cache: make(map[string]cachedAddress),
		now:   time.Now,
	}
}

// NameInfo fetches a name's record.
func (c *Client) NameInfo(ctx context.Context, name string) (*NameInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/names/"+url.PathEscape(name), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNameNotFound
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var info NameInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode name info: %w", err)
	}
	return &info, nil
}

// ResolveBTCAddress returns the BTC address in name's zonefile. Unknown names
// and names without a BTC record return an empty address and no error.
func (c *Client) ResolveBTCAddress(ctx context.Context, name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	now := c.now()
	c.mu.Lock()
	hit, ok := c.cache[name]
	if ok && now.Before(hit.expires) {
		c.mu.Unlock()
		return hit.address, nil
	}
	c.pruneLocked(now)
	c.mu.Unlock()

	info, err := c.NameInfo(ctx, name)
	if errors.Is(err, ErrNameNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	address, ttl, err := ParseBTCAddress(info.Zonefile, name)
	if err != nil {
		return "", err
	}

	if address != "" {
		c.mu.Lock()
		c.cache[name] = cachedAddress{address: address, expires: c.now().Add(ttl)}
		c.mu.Unlock()
	}
	return address, nil
}

// pruneLocked drops every expired cache entry. c.mu must be held.
func (c *Client) pruneLocked(now time.Time) {
	for name, entry := range c.cache {
		if !now.Before(entry.expires) {
			delete(c.cache, name)
		}
	}
}

// ParseBTCAddress finds the _btc._addr TXT record in a zonefile and returns
// its first string and TTL. A zonefile without the record yields "".
func ParseBTCAddress(zonefile, name string) (string, time.Duration, error) {
	if strings.TrimSpace(zonefile) == "" {
		return "", 0, nil
	}

	zp := dns.NewZoneParser(strings.NewReader(zonefile), dns.Fqdn(name), "")
	for rr, ok := zp.Next(); ok; rr, ok = zp.Next() {
		txt, isTXT := rr.(*dns.TXT)
		if !isTXT || len(txt.Txt) == 0 {
			continue
		}
		if strings.HasPrefix(strings.ToLower(txt.Hdr.Name), btcAddrOwner) {
			return strings.TrimSpace(txt.Txt[0]), time.Duration(txt.Hdr.Ttl) * time.Second, nil
		}
	}
	if err := zp.Err(); err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrBadZonefile, err)
	}
	return "", 0, nil
}

// Resolver picks the names API of the current network.
type Resolver struct {
	selector *chain.Selector
	clients  map[chain.Network]*Client
	log      *logging.Logger
}

// NewResolver builds one client per configured names API URL.
func NewResolver(selector *chain.Selector, urls map[chain.Network]string) *Resolver {
	clients := make(map[chain.Network]*Client, len(urls))
	for network, u := range urls {
		if u != "" {
			clients[network] = NewClient(u)
		}
	}
	return &Resolver{
		selector: selector,
		clients:  clients,
		log:      logging.GetDefault().Component("bns"),
	}
}

// ResolveBTCAddress resolves name on the current network.
func (r *Resolver) ResolveBTCAddress(ctx context.Context, name string) (string, error) {
	network := r.selector.Current().Network
	client, ok := r.clients[network]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoNamesAPI, network)
	}

	address, err := client.ResolveBTCAddress(ctx, name)
	if err != nil {
		r.log.Warn("Name lookup failed", "name", name, "network", network, "error", err)
		return "", err
	}
	r.log.Debug("Resolved name", "name", name, "address", address)
	return address, nil
}
