package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// LoginResult represents the outcome of a login attempt.
type LoginResult struct {
	Success           bool
	UserID            int64
	Username          string
	TwoFactorRequired bool
	TwoFactorInfo     map[string]any
	ChallengeRequired bool
	ChallengeInfo     map[string]any
}

// webLoginResponse is Instagram's web login response shape.
type webLoginResponse struct {
	Authenticated     bool   `json:"authenticated"`
	User              bool   `json:"user"`
	UserID            string `json:"userId"`
	Status            string `json:"status"`
	Message           string `json:"message"`
	TwoFactorRequired bool   `json:"two_factor_required"`
	TwoFactorInfo     struct {
		TwoFactorIdentifier string `json:"two_factor_identifier"`
		Username            string `json:"username"`
	} `json:"two_factor_info"`
	Checkpoint struct {
		URL string `json:"url"`
	} `json:"checkpoint_url"`
	ErrorType string `json:"error_type"`
}

// Login authenticates using the web login API. A non-empty verificationCode
// is submitted as the two-factor code.
func (c *Client) Login(username, password, verificationCode string) (*LoginResult, error) {
	c.Username = username
	c.Password = password

	// Already carrying a valid-looking session.
	if c.IsLoggedIn() {
		return &LoginResult{Success: true, UserID: c.UserID(), Username: c.Username}, nil
	}

	c.applyDelay()

	if err := c.fetchInitialCookies(); err != nil {
		return nil, fmt.Errorf("failed to get initial cookies: %w", err)
	}

	result, err := c.webLogin(username, password)
	if err != nil {
		if result != nil && result.TwoFactorRequired && verificationCode != "" {
			return c.webTwoFactorLogin(username, verificationCode, result.TwoFactorInfo)
		}
		return result, err
	}

	if result.Success {
		c.LastLogin = time.Now().Unix()
	}
	return result, nil
}

// fetchInitialCookies primes the cookie jar with the anti-forgery token.
func (c *Client) fetchInitialCookies() error {
	req, err := http.NewRequest(http.MethodGet, IGWebBaseURL+"accounts/login/", nil)
	if err != nil {
		return err
	}

	req.Header.Set("User-Agent", WebUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	u, _ := url.Parse(IGWebBaseURL)
	for _, cookie := range c.httpClient.Jar.Cookies(u) {
		if cookie.Name == "csrftoken" {
			c.csrfToken = cookie.Value
			c.Cookies["csrftoken"] = cookie.Value
		}
		if cookie.Name == "mid" {
			c.Mid = cookie.Value
			c.Cookies["mid"] = cookie.Value
		}
	}

	if c.csrfToken == "" {
		return ErrCSRFTokenMissing
	}
	return nil
}

// webLogin performs the credential submission.
func (c *Client) webLogin(username, password string) (*LoginResult, error) {
	encPassword := fmt.Sprintf("#PWD_INSTAGRAM_BROWSER:0:%d:%s", time.Now().Unix(), password)

	formData := url.Values{}
	formData.Set("username", username)
	formData.Set("enc_password", encPassword)
	formData.Set("queryParams", "{}")
	formData.Set("optIntoOneTap", "false")

	body, err := c.webPost("accounts/login/ajax/", formData)
	if err != nil {
		return nil, err
	}

	var loginResp webLoginResponse
	if err := json.Unmarshal(body, &loginResp); err != nil {
		return nil, fmt.Errorf("failed to parse login response: %w (body: %s)", err, string(body))
	}

	if loginResp.TwoFactorRequired {
		return &LoginResult{
			TwoFactorRequired: true,
			TwoFactorInfo: map[string]any{
				"two_factor_identifier": loginResp.TwoFactorInfo.TwoFactorIdentifier,
				"username":              loginResp.TwoFactorInfo.Username,
			},
		}, ErrTwoFactorRequired
	}

	if loginResp.Checkpoint.URL != "" || loginResp.ErrorType == "checkpoint_required" {
		info := map[string]any{"url": loginResp.Checkpoint.URL}
		c.mu.Lock()
		c.lastChallenge = info
		c.mu.Unlock()
		return &LoginResult{ChallengeRequired: true, ChallengeInfo: info}, ErrChallengeRequired
	}

	if loginResp.Authenticated {
		userID, _ := strconv.ParseInt(loginResp.UserID, 10, 64)
		c.mu.Lock()
		c.Cookies["ds_user_id"] = loginResp.UserID
		c.mu.Unlock()

		return &LoginResult{Success: true, UserID: userID, Username: username}, nil
	}

	errMsg := loginResp.Message
	if errMsg == "" {
		errMsg = "Invalid username or password"
	}
	return nil, &APIError{Message: errMsg, ErrorType: loginResp.ErrorType}
}

// webTwoFactorLogin completes login with a one-time code.
func (c *Client) webTwoFactorLogin(username, verificationCode string, twoFactorInfo map[string]any) (*LoginResult, error) {
	identifier := ""
	if twoFactorInfo != nil {
		if id, ok := twoFactorInfo["two_factor_identifier"].(string); ok {
			identifier = id
		}
	}

	formData := url.Values{}
	formData.Set("username", username)
	formData.Set("verificationCode", verificationCode)
	formData.Set("identifier", identifier)
	formData.Set("queryParams", "{}")

	body, err := c.webPost("accounts/login/ajax/two_factor/", formData)
	if err != nil {
		return nil, err
	}

	var loginResp webLoginResponse
	if err := json.Unmarshal(body, &loginResp); err != nil {
		return nil, fmt.Errorf("failed to parse 2FA response: %w", err)
	}

	if loginResp.Authenticated {
		userID, _ := strconv.ParseInt(loginResp.UserID, 10, 64)
		c.mu.Lock()
		c.Cookies["ds_user_id"] = loginResp.UserID
		c.LastLogin = time.Now().Unix()
		c.mu.Unlock()

		return &LoginResult{Success: true, UserID: userID, Username: username}, nil
	}

	return nil, &APIError{Message: loginResp.Message, ErrorType: loginResp.ErrorType}
}

// ResolveChallenge attempts an automated reset of a pending verification
// challenge. Instagram frequently requires a human here; callers treat this
// as best-effort.
func (c *Client) ResolveChallenge(info map[string]any) error {
	c.mu.RLock()
	if info == nil {
		info = c.lastChallenge
	}
	c.mu.RUnlock()

	if info == nil {
		return errors.New("no pending challenge")
	}

	challengeURL, _ := info["url"].(string)
	if challengeURL == "" {
		return errors.New("challenge info carries no URL")
	}

	// Visiting the checkpoint page, then asking for a reset, clears the
	// simpler "was this you" interstitials.
	req, err := http.NewRequest(http.MethodGet, challengeURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", WebUserAgent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to open challenge page: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	resetURL := strings.Replace(challengeURL, "/challenge/", "/challenge/reset/", 1)
	if resetURL == challengeURL {
		return fmt.Errorf("unrecognized challenge URL: %s", challengeURL)
	}

	body, err := c.webPost(strings.TrimPrefix(resetURL, IGWebBaseURL), url.Values{})
	if err != nil {
		return fmt.Errorf("challenge reset failed: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil || apiResp.Status != "ok" {
		return ErrChallengeRequired
	}
	return nil
}

// Logout invalidates the remote session and clears local session state.
func (c *Client) Logout() error {
	formData := url.Values{}
	formData.Set("one_tap_app_login", "true")

	_, err := c.webPost("accounts/logout/ajax/", formData)

	c.mu.Lock()
	c.AuthorizationData = make(map[string]any)
	c.Cookies = make(map[string]string)
	c.SessionID = ""
	c.LastLogin = 0
	c.csrfToken = ""
	c.mu.Unlock()

	return err
}

// webPost issues a browser-shaped POST against the web API and returns the
// raw body. Non-2xx statuses come back as *APIError.
func (c *Client) webPost(endpoint string, formData url.Values) ([]byte, error) {
	c.applyDelay()

	req, err := http.NewRequest(http.MethodPost, IGWebBaseURL+endpoint, strings.NewReader(formData.Encode()))
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", WebUserAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-CSRFToken", c.CSRFToken())
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("X-IG-App-ID", IGWebAppID)
	req.Header.Set("X-ASBD-ID", "198387")
	req.Header.Set("X-IG-WWW-Claim", "0")
	req.Header.Set("Origin", "https://www.instagram.com")
	req.Header.Set("Referer", IGWebBaseURL+"accounts/login/")
	req.Header.Set("Sec-Fetch-Dest", "empty")
	req.Header.Set("Sec-Fetch-Mode", "cors")
	req.Header.Set("Sec-Fetch-Site", "same-origin")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.updateCookies(resp.Cookies())
	c.updateFromResponseHeaders(resp.Header)

	if c.Debug {
		fmt.Printf("[DEBUG] POST %s -> %d\n", endpoint, resp.StatusCode)
		fmt.Printf("[DEBUG] Response body: %s\n", string(body))
	}

	if resp.StatusCode != http.StatusOK {
		apiResp := &APIResponse{RawBody: body}
		json.Unmarshal(body, apiResp)
		return body, c.handleAPIError(resp.StatusCode, apiResp)
	}
	return body, nil
}
