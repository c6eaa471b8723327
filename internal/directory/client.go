// Package directory talks to the remote user directory, a reqres.in style
// REST service.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"user-console/internal/domain"
)

const (
	DefaultBaseURL = "https://reqres.in/api"
	DefaultTimeout = 10 * time.Second
)

// Fallback messages used when a rejection carries no "error" field.
const (
	msgLoginFailed  = "Login failed!"
	msgListFailed   = "Failed to fetch users!"
	msgGetFailed    = "Failed to fetch user data"
	msgDeleteFailed = "Failed to delete user"
	msgUpdateFailed = "Failed to update user"
)

// Client is the subset of the directory API the console uses.
type Client interface {
	Login(ctx context.Context, email, password string) (string, error)
	ListUsers(ctx context.Context, page int) (domain.UserPage, error)
	GetUser(ctx context.Context, id int64) (domain.User, error)
	DeleteUser(ctx context.Context, id int64) error
	UpdateUser(ctx context.Context, id int64, fields domain.UserFields) error
}

// Options configures an HTTPClient.
type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// HTTPClient overrides the transport, mostly for tests.
	HTTPClient *http.Client
}

// HTTPClient implements Client over HTTP/JSON.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	tracer  trace.Tracer
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(opts Options) *HTTPClient {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPClient{
		baseURL: base,
		apiKey:  opts.APIKey,
		client:  client,
		tracer:  otel.Tracer("user-console/internal/directory"),
	}
}

type loginResponse struct {
	Token string `json:"token"`
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (string, error) {
	body := map[string]string{"email": email, "password": password}
	var out loginResponse
	if err := c.do(ctx, "directory.login", http.MethodPost, "/login", body, &out, msgLoginFailed); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Token) == "" {
		return "", &RejectedError{Status: http.StatusOK, Message: msgLoginFailed}
	}
	return out.Token, nil
}

type listResponse struct {
	Page       int           `json:"page"`
	PerPage    int           `json:"per_page"`
	Total      int           `json:"total"`
	TotalPages int           `json:"total_pages"`
	Data       []domain.User `json:"data"`
}

func (c *HTTPClient) ListUsers(ctx context.Context, page int) (domain.UserPage, error) {
	if page < 1 {
		page = 1
	}
	path := "/users?" + url.Values{"page": {strconv.Itoa(page)}}.Encode()
	var out listResponse
	if err := c.do(ctx, "directory.list_users", http.MethodGet, path, nil, &out, msgListFailed); err != nil {
		return domain.UserPage{}, err
	}
	if out.Page == 0 {
		out.Page = page
	}
	return domain.UserPage{
		Page:       out.Page,
		PerPage:    out.PerPage,
		Total:      out.Total,
		TotalPages: out.TotalPages,
		Users:      out.Data,
	}, nil
}

type userResponse struct {
	Data domain.User `json:"data"`
}

func (c *HTTPClient) GetUser(ctx context.Context, id int64) (domain.User, error) {
	var out userResponse
	if err := c.do(ctx, "directory.get_user", http.MethodGet, userPath(id), nil, &out, msgGetFailed); err != nil {
		return domain.User{}, err
	}
	if out.Data.ID == 0 {
		out.Data.ID = id
	}
	return out.Data, nil
}

func (c *HTTPClient) DeleteUser(ctx context.Context, id int64) error {
	return c.do(ctx, "directory.delete_user", http.MethodDelete, userPath(id), nil, nil, msgDeleteFailed)
}

func (c *HTTPClient) UpdateUser(ctx context.Context, id int64, fields domain.UserFields) error {
	return c.do(ctx, "directory.update_user", http.MethodPut, userPath(id), fields, nil, msgUpdateFailed)
}

func userPath(id int64) string {
	return "/users/" + strconv.FormatInt(id, 10)
}

func (c *HTTPClient) do(ctx context.Context, spanName, method, path string, in, out any, fallback string) (err error) {
	ctx, span := c.tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.path", path),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RejectedError{Status: resp.StatusCode, Message: rejectionMessage(payload, fallback)}
	}
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		if out != nil {
			return fmt.Errorf("%w: empty body", ErrMalformedResponse)
		}
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func rejectionMessage(payload []byte, fallback string) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err == nil && strings.TrimSpace(body.Error) != "" {
		return body.Error
	}
	return fallback
}
