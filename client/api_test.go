package client

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Classification
	}{
		{"nil", nil, ClassUnknown},
		{"plain error", errors.New("boom"), ClassUnknown},
		{"two factor sentinel", ErrTwoFactorRequired, ClassTwoFactor},
		{"challenge sentinel", ErrChallengeRequired, ClassChallenge},
		{"checkpoint sentinel", ErrCheckpointRequired, ClassChallenge},
		{"bad credentials", ErrBadCredentials, ClassBadCredentials},
		{"login required", ErrLoginRequired, ClassTransient},
		{"csrf missing", ErrCSRFTokenMissing, ClassTransient},
		{"rate limited", ErrRateLimited, ClassTransient},
		{"media error", ErrMediaUnsupported, ClassMediaFormat},
		{"transcode error", &APIError{ErrorType: "transcode_error"}, ClassMediaFormat},
		{"forbidden status", &APIError{StatusCode: http.StatusForbidden}, ClassTransient},
		{"too many requests status", &APIError{StatusCode: http.StatusTooManyRequests}, ClassTransient},
		{"untyped 500", &APIError{StatusCode: http.StatusInternalServerError}, ClassUnknown},
		{"wrapped api error", fmt.Errorf("login: %w", ErrTwoFactorRequired), ClassTwoFactor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestHandleAPIErrorReturnsSentinels(t *testing.T) {
	c := NewClient()

	err := c.handleAPIError(400, &APIResponse{ErrorType: "two_factor_required"})
	assert.ErrorIs(t, err, ErrTwoFactorRequired)

	err = c.handleAPIError(400, &APIResponse{ErrorType: "challenge_required"})
	assert.ErrorIs(t, err, ErrChallengeRequired)

	err = c.handleAPIError(400, &APIResponse{ErrorType: "bad_password"})
	assert.ErrorIs(t, err, ErrBadCredentials)

	err = c.handleAPIError(http.StatusTooManyRequests, &APIResponse{})
	assert.ErrorIs(t, err, ErrRateLimited)

	err = c.handleAPIError(500, &APIResponse{Message: "server", ErrorType: "weird"})
	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 500, apiErr.StatusCode)
	assert.Equal(t, "weird", apiErr.ErrorType)
}

func TestParseAuthorization(t *testing.T) {
	// Bearer IGT:2:<base64 of {"ds_user_id":"7","sessionid":"s1"}>
	parsed := parseAuthorization("Bearer IGT:2:eyJkc191c2VyX2lkIjoiNyIsInNlc3Npb25pZCI6InMxIn0=")
	assert.Equal(t, "7", parsed["ds_user_id"])
	assert.Equal(t, "s1", parsed["sessionid"])

	assert.Nil(t, parseAuthorization("garbage"))
	assert.Nil(t, parseAuthorization(""))
}
