package square

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	SandboxBaseURL    = "https://connect.squareupsandbox.com/v2"
	ProductionBaseURL = "https://connect.squareup.com/v2"

	EnvironmentSandbox    = "sandbox"
	EnvironmentProduction = "production"

	apiVersion     = "2025-05-21"
	teamMemberPage = 100
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientConfig struct {
	AccessToken string
	Environment string
	// BaseURL overrides the environment-derived URL.
	BaseURL    string
	HTTPClient httpDoer
	// NewIdempotencyKey defaults to a random UUID per call.
	NewIdempotencyKey func() string
}

type Client struct {
	baseURL        string
	accessToken    string
	httpClient     httpDoer
	idempotencyKey func() string
}

type TeamMember struct {
	ID           string `json:"id"`
	GivenName    string `json:"given_name,omitempty"`
	FamilyName   string `json:"family_name,omitempty"`
	EmailAddress string `json:"email_address,omitempty"`
	Status       string `json:"status,omitempty"`
}

func (m TeamMember) FullName() string {
	return strings.TrimSpace(m.GivenName + " " + m.FamilyName)
}

type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type Wage struct {
	Title      string `json:"title,omitempty"`
	HourlyRate *Money `json:"hourly_rate,omitempty"`
}

type Timecard struct {
	ID           string `json:"id,omitempty"`
	LocationID   string `json:"location_id"`
	TeamMemberID string `json:"team_member_id"`
	StartAt      string `json:"start_at"`
	EndAt        string `json:"end_at,omitempty"`
	Wage         *Wage  `json:"wage,omitempty"`
	Status       string `json:"status,omitempty"`
}

type createTimecardRequest struct {
	IdempotencyKey string   `json:"idempotency_key"`
	Timecard       Timecard `json:"timecard"`
}

type createTimecardResponse struct {
	Timecard Timecard `json:"timecard"`
}

type searchTeamMembersRequest struct {
	Limit  int             `json:"limit"`
	Cursor string          `json:"cursor,omitempty"`
	Query  teamMemberQuery `json:"query"`
}

type teamMemberQuery struct {
	Filter teamMemberFilter `json:"filter"`
}

type teamMemberFilter struct {
	Status string `json:"status,omitempty"`
}

type searchTeamMembersResponse struct {
	TeamMembers []TeamMember `json:"team_members"`
	Cursor      string       `json:"cursor"`
}

// APIError is returned for non-2xx responses and carries Square's error list when present.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Errors     []ErrorDetail
	Body       string
}

type ErrorDetail struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail"`
	Field    string `json:"field,omitempty"`
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("request %s %s failed with status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
	}
	parts := make([]string, 0, len(e.Errors))
	for _, detail := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s/%s: %s", detail.Category, detail.Code, detail.Detail))
	}
	return fmt.Sprintf("request %s %s failed with status %d: %s", e.Method, e.Path, e.StatusCode, strings.Join(parts, "; "))
}

func BaseURLForEnvironment(environment string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(environment)) {
	case "", EnvironmentSandbox:
		return SandboxBaseURL, nil
	case EnvironmentProduction:
		return ProductionBaseURL, nil
	default:
		return "", fmt.Errorf("unsupported square environment %q (valid: sandbox, production)", environment)
	}
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, errors.New("square access token is required")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		resolved, err := BaseURLForEnvironment(cfg.Environment)
		if err != nil {
			return nil, err
		}
		baseURL = resolved
	}

	doer := cfg.HTTPClient
	if doer == nil {
		doer = &http.Client{Timeout: 30 * time.Second}
	}
	keyFn := cfg.NewIdempotencyKey
	if keyFn == nil {
		keyFn = func() string { return uuid.NewString() }
	}

	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		accessToken:    strings.TrimSpace(cfg.AccessToken),
		httpClient:     doer,
		idempotencyKey: keyFn,
	}, nil
}

// ListTeamMembers returns all active team members, following the search cursor.
func (c *Client) ListTeamMembers(ctx context.Context) ([]TeamMember, error) {
	members := make([]TeamMember, 0, teamMemberPage)
	cursor := ""
	for {
		request := searchTeamMembersRequest{
			Limit:  teamMemberPage,
			Cursor: cursor,
			Query:  teamMemberQuery{Filter: teamMemberFilter{Status: "ACTIVE"}},
		}

		var out searchTeamMembersResponse
		if err := c.doJSON(ctx, http.MethodPost, "/team-members/search", request, &out); err != nil {
			return nil, err
		}
		members = append(members, out.TeamMembers...)

		if out.Cursor == "" || out.Cursor == cursor {
			break
		}
		cursor = out.Cursor
	}
	return members, nil
}

// CreateTimecard creates one timecard. Each call sends a fresh idempotency key, so a
// transport-level retry of the same request is safe but two calls create two timecards.
func (c *Client) CreateTimecard(ctx context.Context, timecard Timecard) (Timecard, error) {
	request := createTimecardRequest{
		IdempotencyKey: c.idempotencyKey(),
		Timecard:       timecard,
	}

	var out createTimecardResponse
	if err := c.doJSON(ctx, http.MethodPost, "/labor/timecards", request, &out); err != nil {
		return Timecard{}, err
	}
	return out.Timecard, nil
}

func (c *Client) doJSON(ctx context.Context, method, endpointPath string, body any, out any) error {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpointPath, bodyReader)
	if err != nil {
		return fmt.Errorf("create request %s %s: %w", method, endpointPath, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Square-Version", apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, endpointPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &APIError{
			Method:     method,
			Path:       endpointPath,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
		var decoded struct {
			Errors []ErrorDetail `json:"errors"`
		}
		if json.Unmarshal(raw, &decoded) == nil {
			apiErr.Errors = decoded.Errors
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response %s %s: %w", method, endpointPath, err)
	}
	return nil
}
