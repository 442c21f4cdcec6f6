package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/eventsplatform/internal/client/credentials"
	"github.com/dmitrijs2005/eventsplatform/internal/common"
	"github.com/dmitrijs2005/eventsplatform/internal/validation"
)

// maxBody bounds how much of a response is read.
const maxBody = 1 << 20

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=SEEKER FACILITATOR"`
}

type verifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,numeric"`
}

type resendRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// HTTPClient talks JSON to the events service.
type HTTPClient struct {
	baseURL   string
	http      *http.Client
	validator *validation.Validator
}

// NewHTTPClient expects hc to come from transport.New.
func NewHTTPClient(baseURL string, hc *http.Client) *HTTPClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTPClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      hc,
		validator: validation.New(),
	}
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var res LoginResult
	if err := c.post(ctx, PathLogin, loginRequest{Email: email, Password: password}, &res); err != nil {
		return nil, err
	}
	if res.Access == "" {
		return nil, fmt.Errorf("%w: login without access token", ErrUnexpectedResponse)
	}
	return &res, nil
}

func (c *HTTPClient) Signup(ctx context.Context, email, password string, role credentials.Role) error {
	return c.post(ctx, PathSignup, signupRequest{Email: email, Password: password, Role: role.String()}, nil)
}

func (c *HTTPClient) VerifyEmail(ctx context.Context, email, otp string) error {
	return c.post(ctx, PathVerifyEmail, verifyRequest{Email: email, OTP: otp}, nil)
}

func (c *HTTPClient) ResendOTP(ctx context.Context, email string) error {
	return c.post(ctx, PathResendOTP, resendRequest{Email: email}, nil)
}

// Fetch GETs path and returns the body as is.
func (c *HTTPClient) Fetch(ctx context.Context, path string) (json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: body of %s is not json", ErrUnexpectedResponse, path)
	}
	return json.RawMessage(body), nil
}

func (c *HTTPClient) post(ctx context.Context, path string, in, out any) error {
	if err := c.validator.Validate(in); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, err)
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	body, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrUnexpectedResponse, path, err)
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	u, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return nil, fmt.Errorf("build url for %s: %w", path, err)
	}
	// JoinPath drops the trailing slash the service routes rely on
	if strings.HasSuffix(path, "/") && !strings.HasSuffix(u, "/") {
		u += "/"
	}

	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, fmt.Errorf("new request %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", common.ContentTypeJSON)
	if payload != nil {
		req.Header.Set(common.ContentTypeHeader, common.ContentTypeJSON)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s %s: %w", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrUnavailable, path, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusBadGateway, resp.StatusCode == http.StatusServiceUnavailable, resp.StatusCode == http.StatusGatewayTimeout:
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
	default:
		return nil, parseError(resp.StatusCode, body)
	}
}

// AsError reports whether err came back from the service as a body
// with a message the user should see.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
