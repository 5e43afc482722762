package client

import (
	"compress/gzip"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	mrand "math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// APIResponse represents a response from Instagram's API.
type APIResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	ErrorType string `json:"error_type,omitempty"`
	RawBody   []byte `json:"-"`
}

// APIError represents an Instagram API error with a structured type, so
// callers classify failures by ErrorType and status code instead of
// pattern-matching message text.
type APIError struct {
	StatusCode int
	Message    string
	ErrorType  string
	Response   *APIResponse
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("Instagram API error: %s (code: %d, type: %s)", e.Message, e.StatusCode, e.ErrorType)
	}
	return fmt.Sprintf("Instagram API error: status code %d", e.StatusCode)
}

// Common Instagram API errors
var (
	ErrBadCredentials    = &APIError{Message: "Invalid username or password", ErrorType: "bad_password"}
	ErrTwoFactorRequired = &APIError{Message: "Two factor authentication required", ErrorType: "two_factor_required"}
	ErrChallengeRequired = &APIError{Message: "Challenge required", ErrorType: "challenge_required"}
	ErrCheckpointRequired = &APIError{Message: "Checkpoint required", ErrorType: "checkpoint_challenge_required"}
	ErrLoginRequired     = &APIError{Message: "Login required", ErrorType: "login_required"}
	ErrCSRFTokenMissing  = &APIError{Message: "Missing anti-forgery token", ErrorType: "csrf_token_missing"}
	ErrRateLimited       = &APIError{Message: "Rate limited, please wait", ErrorType: "rate_limit", StatusCode: http.StatusTooManyRequests}
	ErrMediaUnsupported  = &APIError{Message: "Media could not be processed", ErrorType: "media_error"}
)

// Classification buckets a remote failure for workflow control flow.
type Classification int

const (
	// ClassUnknown is a failure the client cannot attribute.
	ClassUnknown Classification = iota
	// ClassTransient covers session, anti-forgery and rate-limit failures;
	// the owning workflow should rebuild the client and retry.
	ClassTransient
	// ClassTwoFactor means a one-time code must be supplied.
	ClassTwoFactor
	// ClassChallenge means an interactive verification is pending.
	ClassChallenge
	// ClassMediaFormat means the uploaded media itself was rejected.
	ClassMediaFormat
	// ClassBadCredentials means the username/password pair is wrong.
	ClassBadCredentials
)

func (cl Classification) String() string {
	switch cl {
	case ClassTransient:
		return "transient"
	case ClassTwoFactor:
		return "two_factor"
	case ClassChallenge:
		return "challenge"
	case ClassMediaFormat:
		return "media_format"
	case ClassBadCredentials:
		return "bad_credentials"
	}
	return "unknown"
}

// Classify maps an error returned by this package onto a Classification.
func Classify(err error) Classification {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return ClassUnknown
	}

	switch apiErr.ErrorType {
	case "two_factor_required":
		return ClassTwoFactor
	case "challenge_required", "checkpoint_required", "checkpoint_challenge_required":
		return ClassChallenge
	case "bad_password", "invalid_user":
		return ClassBadCredentials
	case "rate_limit", "login_required", "csrf_token_missing", "feedback_required":
		return ClassTransient
	case "media_error", "transcode_error", "unsupported_media":
		return ClassMediaFormat
	}

	switch apiErr.StatusCode {
	case http.StatusForbidden, http.StatusTooManyRequests:
		return ClassTransient
	}
	return ClassUnknown
}

// baseHeaders returns the base headers for private-API requests.
func (c *Client) baseHeaders() map[string]string {
	headers := map[string]string{
		"User-Agent":             c.UserAgent,
		"Content-Type":           "application/x-www-form-urlencoded; charset=UTF-8",
		"Accept-Language":        c.Locale,
		"Accept-Encoding":        "gzip, deflate",
		"X-IG-Capabilities":      "3brTvw==",
		"X-IG-Connection-Type":   "WIFI",
		"X-IG-Connection-Speed":  randomConnectionSpeed(),
		"X-IG-App-Locale":        c.Locale,
		"X-IG-Device-Locale":     c.Locale,
		"X-IG-Mapped-Locale":     c.Locale,
		"X-Pigeon-Session-Id":    c.ClientSessionID,
		"X-Pigeon-Rawclienttime": strconv.FormatFloat(float64(time.Now().UnixNano())/1e9, 'f', 3, 64),
		"X-IG-App-ID":            IGWebAppID,
		"X-FB-HTTP-Engine":       "Liger",
		"X-FB-Client-IP":         "True",
		"IG-INTENDED-USER-ID":    strconv.FormatInt(c.UserID(), 10),
		"X-MID":                  c.Mid,
	}

	if c.IgWwwClaim != "" {
		headers["X-IG-WWW-Claim"] = c.IgWwwClaim
	} else {
		headers["X-IG-WWW-Claim"] = "0"
	}
	if c.IgURur != "" {
		headers["IG-U-RUR"] = c.IgURur
	}

	return headers
}

// privateRequest makes an authenticated POST to Instagram's private API.
func (c *Client) privateRequest(endpoint string, data map[string]any, login bool) (*APIResponse, error) {
	c.applyDelay()

	formData := url.Values{}
	for key, value := range data {
		switch v := value.(type) {
		case string:
			formData.Set(key, v)
		case int:
			formData.Set(key, strconv.Itoa(v))
		case int64:
			formData.Set(key, strconv.FormatInt(v, 10))
		case bool:
			if v {
				formData.Set(key, "1")
			} else {
				formData.Set(key, "0")
			}
		default:
			jsonBytes, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal data: %w", err)
			}
			formData.Set(key, string(jsonBytes))
		}
	}

	req, err := http.NewRequest(http.MethodPost, IGAPIBaseURL+endpoint, strings.NewReader(formData.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range c.baseHeaders() {
		req.Header.Set(key, value)
	}
	if !login && len(c.AuthorizationData) > 0 {
		req.Header.Set("Authorization", c.authorizationHeader())
	}
	req.Header.Set("X-CSRFToken", c.CSRFToken())

	return c.execute(req)
}

// privateRequestGET makes an authenticated GET to Instagram's private API.
func (c *Client) privateRequestGET(endpoint string, params map[string]string) (*APIResponse, error) {
	c.applyDelay()

	urlStr := IGAPIBaseURL + endpoint
	if len(params) > 0 {
		queryParams := url.Values{}
		for key, value := range params {
			queryParams.Set(key, value)
		}
		urlStr += "?" + queryParams.Encode()
	}

	req, err := http.NewRequest(http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range c.baseHeaders() {
		req.Header.Set(key, value)
	}
	req.Header.Del("Content-Type")
	if len(c.AuthorizationData) > 0 {
		req.Header.Set("Authorization", c.authorizationHeader())
	}
	req.Header.Set("X-CSRFToken", c.CSRFToken())

	return c.execute(req)
}

// execute runs the request and folds status handling, cookie and header
// bookkeeping into an APIResponse.
func (c *Client) execute(req *http.Request) (*APIResponse, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var bodyReader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzReader.Close()
		bodyReader = gzReader
	}

	body, err := io.ReadAll(bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.updateCookies(resp.Cookies())
	c.updateFromResponseHeaders(resp.Header)

	apiResp := &APIResponse{RawBody: body}
	if err := json.Unmarshal(body, apiResp); err != nil && c.Debug {
		fmt.Printf("[DEBUG] Failed to parse response: %s\n", string(body))
	}

	if c.Debug {
		fmt.Printf("[DEBUG] %s %s -> %d\n", req.Method, req.URL.Path, resp.StatusCode)
		fmt.Printf("[DEBUG] Response body: %s\n", string(body))
	}

	if resp.StatusCode != http.StatusOK || apiResp.Status == "fail" {
		return apiResp, c.handleAPIError(resp.StatusCode, apiResp)
	}
	return apiResp, nil
}

// authorizationHeader builds the bearer authorization header.
func (c *Client) authorizationHeader() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.AuthorizationData) == 0 {
		return ""
	}
	jsonData, err := json.Marshal(c.AuthorizationData)
	if err != nil {
		return ""
	}
	return "Bearer IGT:2:" + base64.StdEncoding.EncodeToString(jsonData)
}

// parseAuthorization parses the ig-set-authorization response header.
func parseAuthorization(auth string) map[string]any {
	parts := strings.Split(auth, ":")
	if len(parts) < 2 {
		return nil
	}

	decoded, err := base64.StdEncoding.DecodeString(parts[len(parts)-1])
	if err != nil {
		return nil
	}

	var result map[string]any
	if err := json.Unmarshal(decoded, &result); err != nil {
		return nil
	}
	return result
}

// updateCookies updates stored cookies from a response.
func (c *Client) updateCookies(cookies []*http.Cookie) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, cookie := range cookies {
		c.Cookies[cookie.Name] = cookie.Value

		switch cookie.Name {
		case "csrftoken":
			c.csrfToken = cookie.Value
		case "mid":
			c.Mid = cookie.Value
		case "sessionid":
			c.SessionID = cookie.Value
		}
	}
}

// updateFromResponseHeaders updates client state from response headers.
func (c *Client) updateFromResponseHeaders(headers http.Header) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if auth := headers.Get("ig-set-authorization"); auth != "" {
		if parsed := parseAuthorization(auth); parsed != nil {
			c.AuthorizationData = parsed
		}
	}
	if rur := headers.Get("ig-set-ig-u-rur"); rur != "" {
		c.IgURur = rur
	}
	if claim := headers.Get("x-ig-set-www-claim"); claim != "" {
		c.IgWwwClaim = claim
	}
}

// handleAPIError converts API error responses to *APIError values (or the
// shared sentinels where the type is well known).
func (c *Client) handleAPIError(statusCode int, resp *APIResponse) error {
	switch resp.ErrorType {
	case "two_factor_required":
		return ErrTwoFactorRequired
	case "challenge_required":
		return ErrChallengeRequired
	case "checkpoint_challenge_required", "checkpoint_required":
		return ErrCheckpointRequired
	case "bad_password", "invalid_user":
		return ErrBadCredentials
	case "login_required":
		return ErrLoginRequired
	}

	if statusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}

	return &APIError{
		StatusCode: statusCode,
		Message:    resp.Message,
		ErrorType:  resp.ErrorType,
		Response:   resp,
	}
}

// randomToken generates a random hex token.
func randomToken(length int) string {
	bytes := make([]byte, length/2)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// randomConnectionSpeed fakes a plausible connection speed header value.
func randomConnectionSpeed() string {
	return strconv.Itoa(mrand.Intn(3000)+1000) + "kbps"
}
