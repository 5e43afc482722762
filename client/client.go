package client

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Instagram API constants
const (
	IGAPIBaseURL = "https://i.instagram.com/api/v1/"
	IGWebBaseURL = "https://www.instagram.com/"
	IGWebAppID   = "936619743392459"
)

// WebUserAgent is the fixed browser identification string used for all
// web-API traffic.
const WebUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Client talks to Instagram's web and private APIs. It owns the full device
// and session identity; a Client whose session has gone bad is discarded and
// rebuilt, never repaired in place.
type Client struct {
	mu sync.RWMutex

	// Credentials
	Username string `json:"username"`
	Password string `json:"-"`

	// Session data
	SessionID         string            `json:"session_id,omitempty"`
	AuthorizationData map[string]any    `json:"authorization_data,omitempty"`
	LastLogin         int64             `json:"last_login,omitempty"`
	Cookies           map[string]string `json:"cookies,omitempty"`

	// Device identity
	DeviceSettings *DeviceSettings `json:"device_settings"`
	UserAgent      string          `json:"user_agent"`

	// UUIDs
	PhoneID         string `json:"phone_id"`
	UUID            string `json:"uuid"`
	ClientSessionID string `json:"client_session_id"`
	AdvertisingID   string `json:"advertising_id"`
	AndroidDeviceID string `json:"android_device_id"`
	RequestID       string `json:"request_id"`

	// Locale settings
	Country        string `json:"country"`
	CountryCode    int    `json:"country_code"`
	Locale         string `json:"locale"`
	TimezoneOffset int    `json:"timezone_offset"`

	// Headers
	Mid        string `json:"mid,omitempty"`
	IgURur     string `json:"ig_u_rur,omitempty"`
	IgWwwClaim string `json:"ig_www_claim,omitempty"`

	httpClient *http.Client
	csrfToken  string

	// Randomized pause applied before every remote call.
	delayMin time.Duration
	delayMax time.Duration

	// Info captured from the last challenge response, consumed by
	// ResolveChallenge.
	lastChallenge map[string]any

	reporter ProgressReporter

	Debug bool `json:"-"`
}

// NewClient creates a fresh client with a new device identity and no session.
func NewClient() *Client {
	jar, _ := cookiejar.New(nil)

	c := &Client{
		DeviceSettings:    defaultDeviceSettings(),
		Country:           "US",
		CountryCode:       1,
		Locale:            "en_US",
		TimezoneOffset:    -14400, // GMT-4 (New York)
		AuthorizationData: make(map[string]any),
		Cookies:           make(map[string]string),
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: 60 * time.Second,
		},
	}

	c.initUUIDs()
	c.UserAgent = BuildUserAgent(c.DeviceSettings, c.Locale)

	return c
}

func (c *Client) initUUIDs() {
	c.PhoneID = uuid.New().String()
	c.UUID = uuid.New().String()
	c.ClientSessionID = uuid.New().String()
	c.AdvertisingID = uuid.New().String()
	c.AndroidDeviceID = GenerateDeviceID()
	c.RequestID = uuid.New().String()
}

// SetUserAgent overrides the mobile user agent.
func (c *Client) SetUserAgent(ua string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.UserAgent = ua
}

// SetDelayRange configures the randomized pause, in seconds, applied before
// each remote call.
func (c *Client) SetDelayRange(lo, hi float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delayMin = time.Duration(lo * float64(time.Second))
	c.delayMax = time.Duration(hi * float64(time.Second))
}

// SetProxy routes all traffic through proxyURL.
func (c *Client) SetProxy(proxyURL string) error {
	u, err := url.Parse(proxyURL)
	if err != nil {
		return fmt.Errorf("invalid proxy URL: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.httpClient.Transport = &http.Transport{Proxy: http.ProxyURL(u)}
	return nil
}

// SetProgressReporter attaches an upload progress observer.
func (c *Client) SetProgressReporter(r ProgressReporter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reporter = r
}

// applyDelay sleeps a random interval inside the configured delay range.
func (c *Client) applyDelay() {
	c.mu.RLock()
	lo, hi := c.delayMin, c.delayMax
	c.mu.RUnlock()

	if hi <= 0 {
		return
	}
	d := lo
	if hi > lo {
		d += time.Duration(rand.Int63n(int64(hi - lo)))
	}
	time.Sleep(d)
}

// UserID returns the authenticated user ID, or 0.
func (c *Client) UserID() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if userID, ok := c.Cookies["ds_user_id"]; ok {
		if id, err := strconv.ParseInt(userID, 10, 64); err == nil {
			return id
		}
	}

	if c.AuthorizationData != nil {
		if userID, ok := c.AuthorizationData["ds_user_id"]; ok {
			switch v := userID.(type) {
			case string:
				if id, err := strconv.ParseInt(v, 10, 64); err == nil {
					return id
				}
			case float64:
				return int64(v)
			case int64:
				return v
			}
		}
	}

	return 0
}

// GetSessionID returns the current session ID, or "".
func (c *Client) GetSessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.SessionID != "" {
		return c.SessionID
	}
	if sid, ok := c.Cookies["sessionid"]; ok {
		return sid
	}
	if c.AuthorizationData != nil {
		if sid, ok := c.AuthorizationData["sessionid"].(string); ok {
			return sid
		}
	}
	return ""
}

// CSRFToken returns or generates an anti-forgery token.
func (c *Client) CSRFToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.csrfToken != "" {
		return c.csrfToken
	}
	if token, ok := c.Cookies["csrftoken"]; ok {
		c.csrfToken = token
		return token
	}
	c.csrfToken = randomToken(64)
	return c.csrfToken
}

// IsLoggedIn checks whether the client carries a session.
func (c *Client) IsLoggedIn() bool {
	return c.UserID() != 0 && c.GetSessionID() != ""
}

// Settings is the serializable session state: everything needed to rebuild
// a Client that the remote side will recognize as the same device.
type Settings struct {
	Username          string            `json:"username"`
	UUIDs             map[string]string `json:"uuids"`
	Mid               string            `json:"mid,omitempty"`
	IgURur            string            `json:"ig_u_rur,omitempty"`
	IgWwwClaim        string            `json:"ig_www_claim,omitempty"`
	AuthorizationData map[string]any    `json:"authorization_data,omitempty"`
	Cookies           map[string]string `json:"cookies,omitempty"`
	LastLogin         int64             `json:"last_login,omitempty"`
	DeviceSettings    *DeviceSettings   `json:"device_settings,omitempty"`
	UserAgent         string            `json:"user_agent,omitempty"`
	Country           string            `json:"country,omitempty"`
	CountryCode       int               `json:"country_code,omitempty"`
	Locale            string            `json:"locale,omitempty"`
	TimezoneOffset    int               `json:"timezone_offset,omitempty"`
}

// ExportSettings serializes the session state to an opaque JSON blob.
func (c *Client) ExportSettings() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return json.Marshal(&Settings{
		Username: c.Username,
		UUIDs: map[string]string{
			"phone_id":          c.PhoneID,
			"uuid":              c.UUID,
			"client_session_id": c.ClientSessionID,
			"advertising_id":    c.AdvertisingID,
			"android_device_id": c.AndroidDeviceID,
			"request_id":        c.RequestID,
		},
		Mid:               c.Mid,
		IgURur:            c.IgURur,
		IgWwwClaim:        c.IgWwwClaim,
		AuthorizationData: c.AuthorizationData,
		Cookies:           c.Cookies,
		LastLogin:         c.LastLogin,
		DeviceSettings:    c.DeviceSettings,
		UserAgent:         c.UserAgent,
		Country:           c.Country,
		CountryCode:       c.CountryCode,
		Locale:            c.Locale,
		TimezoneOffset:    c.TimezoneOffset,
	})
}

// ImportSettings restores session state from a blob produced by
// ExportSettings.
func (c *Client) ImportSettings(data []byte) error {
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("failed to parse session settings: %w", err)
	}

	c.mu.Lock()
	if s.Username != "" {
		c.Username = s.Username
	}
	if s.UUIDs != nil {
		if v, ok := s.UUIDs["phone_id"]; ok {
			c.PhoneID = v
		}
		if v, ok := s.UUIDs["uuid"]; ok {
			c.UUID = v
		}
		if v, ok := s.UUIDs["client_session_id"]; ok {
			c.ClientSessionID = v
		}
		if v, ok := s.UUIDs["advertising_id"]; ok {
			c.AdvertisingID = v
		}
		if v, ok := s.UUIDs["android_device_id"]; ok {
			c.AndroidDeviceID = v
		}
		if v, ok := s.UUIDs["request_id"]; ok {
			c.RequestID = v
		}
	}
	c.Mid = s.Mid
	c.IgURur = s.IgURur
	c.IgWwwClaim = s.IgWwwClaim
	if s.AuthorizationData != nil {
		c.AuthorizationData = s.AuthorizationData
	}
	if s.Cookies != nil {
		c.Cookies = s.Cookies
	}
	c.LastLogin = s.LastLogin
	if s.DeviceSettings != nil {
		c.DeviceSettings = s.DeviceSettings
	}
	if s.UserAgent != "" {
		c.UserAgent = s.UserAgent
	}
	if s.Country != "" {
		c.Country = s.Country
		c.CountryCode = s.CountryCode
	}
	if s.Locale != "" {
		c.Locale = s.Locale
	}
	if s.TimezoneOffset != 0 {
		c.TimezoneOffset = s.TimezoneOffset
	}
	c.mu.Unlock()

	if len(s.Cookies) > 0 {
		c.restoreCookies()
	}
	return nil
}

// restoreCookies pushes stored cookies back into the HTTP client jar.
func (c *Client) restoreCookies() {
	c.mu.Lock()
	defer c.mu.Unlock()

	var cookies []*http.Cookie
	for name, value := range c.Cookies {
		cookies = append(cookies, &http.Cookie{
			Name:   name,
			Value:  value,
			Domain: ".instagram.com",
			Path:   "/",
		})
	}

	apiURL, _ := url.Parse(IGAPIBaseURL)
	c.httpClient.Jar.SetCookies(apiURL, cookies)
	webURL, _ := url.Parse(IGWebBaseURL)
	c.httpClient.Jar.SetCookies(webURL, cookies)

	if token, ok := c.Cookies["csrftoken"]; ok {
		c.csrfToken = token
	}
	if sid, ok := c.Cookies["sessionid"]; ok {
		c.SessionID = sid
	}
}
