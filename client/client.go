package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	defaultTimeout = 10 * time.Second
	userAgent      = "messboard/1.0"
)

// Client talks to an S3-style object store over plain HTTP.
type Client struct {
	client    *http.Client
	cache     *cache.Cache
	userAgent string
	endpoint  string
	bucket    string
	token     string
	publicURL string
}

type Options struct {
	Bucket    string
	Token     string
	PublicURL string
	Timeout   time.Duration
}

func New(endpoint string, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := http.Client{
		Timeout: timeout,
	}

	publicURL := opts.PublicURL
	if publicURL == "" {
		publicURL = strings.TrimRight(endpoint, "/") + "/" + opts.Bucket
	}

	c := &Client{
		client:    &httpClient,
		cache:     cache.New(10*time.Minute, 15*time.Minute),
		userAgent: userAgent,
		endpoint:  strings.TrimRight(endpoint, "/"),
		bucket:    opts.Bucket,
		token:     opts.Token,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
	httpClient.Transport = c
	return c
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return http.DefaultTransport.RoundTrip(req)
}

func (c *Client) objectURL(key string) string {
	return c.endpoint + "/" + c.bucket + "/" + key
}

// PublicURL is the address clients fetch key from.
func (c *Client) PublicURL(key string) string {
	return c.publicURL + "/" + key
}

// KeyOf reverses PublicURL. ok is false for references this store did not issue.
func (c *Client) KeyOf(ref string) (string, bool) {
	prefix := c.publicURL + "/"
	if !strings.HasPrefix(ref, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(ref, prefix)
	return key, key != ""
}

func (c *Client) PutObject(ctx context.Context, key, contentType string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.objectURL(key), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(data))

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to perform request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	c.cache.Set("object:"+key, true, cache.DefaultExpiration)
	return nil
}

// DeleteObject removes key. A missing object is not an error.
func (c *Client) DeleteObject(ctx context.Context, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.objectURL(key), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to perform request: %v", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted, http.StatusNoContent, http.StatusNotFound:
	default:
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	c.cache.Delete("object:" + key)
	return nil
}

// HasObject reports whether key exists. Answers are cached; PutObject and
// DeleteObject keep the cache current.
func (c *Client) HasObject(ctx context.Context, key string) (bool, error) {
	cacheKey := "object:" + key
	if x, found := c.cache.Get(cacheKey); found {
		return x.(bool), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.objectURL(key), nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %v", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to perform request: %v", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		c.cache.Set(cacheKey, true, cache.DefaultExpiration)
		return true, nil
	case http.StatusNotFound:
		c.cache.Set(cacheKey, false, time.Minute)
		return false, nil
	default:
		return false, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
}
