package client

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Account is the profile data Instagram returns for a user.
type Account struct {
	Pk             int64  `json:"pk"`
	Username       string `json:"username"`
	FullName       string `json:"full_name"`
	Biography      string `json:"biography"`
	IsPrivate      bool   `json:"is_private"`
	IsVerified     bool   `json:"is_verified"`
	FollowerCount  int    `json:"follower_count"`
	FollowingCount int    `json:"following_count"`
	MediaCount     int    `json:"media_count"`
	ProfilePicURL  string `json:"profile_pic_url"`
	ExternalURL    string `json:"external_url"`
}

// FriendshipStatus reflects the relation to another user after a
// follow/unfollow call.
type FriendshipStatus struct {
	Following       bool `json:"following"`
	OutgoingRequest bool `json:"outgoing_request"`
	IsPrivate       bool `json:"is_private"`
}

// CurrentUser returns the profile of the logged-in account.
func (c *Client) CurrentUser() (*Account, error) {
	resp, err := c.privateRequestGET("accounts/current_user/", map[string]string{"edit": "true"})
	if err != nil {
		return nil, err
	}
	return parseUser(resp.RawBody)
}

// UserIDFromUsername resolves a username to its numeric ID.
func (c *Client) UserIDFromUsername(username string) (int64, error) {
	resp, err := c.privateRequestGET("users/"+username+"/usernameinfo/", nil)
	if err != nil {
		return 0, err
	}

	account, err := parseUser(resp.RawBody)
	if err != nil {
		return 0, err
	}
	if account.Pk == 0 {
		return 0, &APIError{Message: "user not found: " + username, ErrorType: "invalid_user"}
	}
	return account.Pk, nil
}

// Follow follows a user by ID.
func (c *Client) Follow(userID int64) (*FriendshipStatus, error) {
	return c.friendshipAction("friendships/create/", userID)
}

// Unfollow unfollows a user by ID.
func (c *Client) Unfollow(userID int64) (*FriendshipStatus, error) {
	return c.friendshipAction("friendships/destroy/", userID)
}

func (c *Client) friendshipAction(endpoint string, userID int64) (*FriendshipStatus, error) {
	resp, err := c.privateRequest(fmt.Sprintf("%s%d/", endpoint, userID), map[string]any{
		"user_id":    userID,
		"_uid":       strconv.FormatInt(c.UserID(), 10),
		"_uuid":      c.UUID,
		"radio_type": "wifi-none",
	}, false)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		FriendshipStatus *FriendshipStatus `json:"friendship_status"`
	}
	if err := json.Unmarshal(resp.RawBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse friendship response: %w", err)
	}
	if parsed.FriendshipStatus == nil {
		parsed.FriendshipStatus = &FriendshipStatus{}
	}
	return parsed.FriendshipStatus, nil
}

// Like marks a media as liked by its ID.
func (c *Client) Like(mediaID string) error {
	_, err := c.privateRequest("media/"+mediaID+"/like/", map[string]any{
		"media_id": mediaID,
		"_uid":     strconv.FormatInt(c.UserID(), 10),
		"_uuid":    c.UUID,
	}, false)
	return err
}

// Comment posts a text comment on a media and returns the created comment ID.
func (c *Client) Comment(mediaID, text string) (string, error) {
	resp, err := c.privateRequest("media/"+mediaID+"/comment/", map[string]any{
		"comment_text":          text,
		"_uid":                  strconv.FormatInt(c.UserID(), 10),
		"_uuid":                 c.UUID,
		"idempotence_token":     randomToken(32),
		"containermodule":       "comments_v2",
		"radio_type":            "wifi-none",
		"delivery_class":        "organic",
		"feed_position":         "0",
	}, false)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Comment struct {
			Pk json.Number `json:"pk"`
		} `json:"comment"`
	}
	if err := json.Unmarshal(resp.RawBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse comment response: %w", err)
	}
	return parsed.Comment.Pk.String(), nil
}

// UserMedias returns up to amount most recent medias of a user. amount <= 0
// means one page.
func (c *Client) UserMedias(userID int64, amount int) ([]*Media, error) {
	var medias []*Media
	maxID := ""

	for {
		params := map[string]string{"count": "33"}
		if maxID != "" {
			params["max_id"] = maxID
		}

		resp, err := c.privateRequestGET(fmt.Sprintf("feed/user/%d/", userID), params)
		if err != nil {
			return medias, err
		}

		var page struct {
			Items         []*Media `json:"items"`
			MoreAvailable bool     `json:"more_available"`
			NextMaxID     string   `json:"next_max_id"`
		}
		if err := json.Unmarshal(resp.RawBody, &page); err != nil {
			return medias, fmt.Errorf("failed to parse feed response: %w", err)
		}

		medias = append(medias, page.Items...)
		if amount > 0 && len(medias) >= amount {
			return medias[:amount], nil
		}
		if !page.MoreAvailable || page.NextMaxID == "" || amount <= 0 {
			return medias, nil
		}
		maxID = page.NextMaxID
	}
}

// parseUser extracts the user object from a raw API body.
func parseUser(body []byte) (*Account, error) {
	var parsed struct {
		User *Account `json:"user"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse user response: %w", err)
	}
	if parsed.User == nil {
		return nil, &APIError{Message: "response carries no user object", ErrorType: "invalid_user"}
	}
	return parsed.User, nil
}
