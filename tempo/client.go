package tempo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"temposquare/internal/timeutil"
	"temposquare/worklog"
)

const (
	DefaultBaseURL = "https://api.tempo.io/4"

	pageLimit       = 1000
	updatedFromTime = "2006-01-02T15:04:05Z"
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientConfig struct {
	BaseURL    string
	APIToken   string
	HTTPClient httpDoer
}

type Client struct {
	baseURL    string
	apiToken   string
	httpClient httpDoer
}

// Query selects worklogs by start day. Project and UpdatedFrom are optional.
type Query struct {
	From        time.Time
	To          time.Time
	Project     string
	UpdatedFrom *time.Time
}

type page struct {
	Metadata metadata          `json:"metadata"`
	Results  []worklog.Worklog `json:"results"`
}

type metadata struct {
	Count  int    `json:"count"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
	Next   string `json:"next"`
}

func NewClient(cfg ClientConfig) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid tempo base URL %q", cfg.BaseURL)
	}
	if strings.TrimSpace(cfg.APIToken) == "" {
		return nil, errors.New("tempo api token is required")
	}

	doer := cfg.HTTPClient
	if doer == nil {
		doer = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		baseURL:    baseURL,
		apiToken:   strings.TrimSpace(cfg.APIToken),
		httpClient: doer,
	}, nil
}

// FetchWorklogs returns every worklog matching the query, following offset pagination.
func (c *Client) FetchWorklogs(ctx context.Context, query Query) ([]worklog.Worklog, error) {
	params := url.Values{}
	params.Set("from", timeutil.FormatDay(query.From))
	params.Set("to", timeutil.FormatDay(query.To))
	params.Set("limit", strconv.Itoa(pageLimit))
	if project := strings.TrimSpace(query.Project); project != "" {
		params.Set("project", project)
	}
	if query.UpdatedFrom != nil {
		params.Set("updatedFrom", query.UpdatedFrom.UTC().Format(updatedFromTime))
	}

	all := make([]worklog.Worklog, 0, 256)
	offset := 0
	for {
		params.Set("offset", strconv.Itoa(offset))

		var current page
		if err := c.getJSON(ctx, "/worklogs", params, &current); err != nil {
			return nil, err
		}
		if len(current.Results) == 0 {
			break
		}
		for _, item := range current.Results {
			item.Project = strings.TrimSpace(query.Project)
			all = append(all, item)
		}

		// count is the server-reported total; a next link means more pages regardless.
		if current.Metadata.Next == "" && len(all) >= current.Metadata.Count {
			break
		}
		offset += len(current.Results)
	}

	return all, nil
}

func (c *Client) getJSON(ctx context.Context, endpointPath string, params url.Values, out any) error {
	target := c.baseURL + endpointPath
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request GET %s: %w", endpointPath, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request GET %s failed: %w", endpointPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf(
			"request GET %s failed with status %d: %s",
			endpointPath,
			resp.StatusCode,
			strings.TrimSpace(string(body)),
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response GET %s: %w", endpointPath, err)
	}
	return nil
}
