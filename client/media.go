package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/PiotrWarzachowski/go-instagram-bot/internal/media"
)

// Media type tags as Instagram reports them.
const (
	MediaTypePhoto = 1
	MediaTypeVideo = 2
	MediaTypeAlbum = 8
)

// Media is a published or fetched media item.
type Media struct {
	Pk           int64  `json:"pk"`
	ID           string `json:"id"`
	Code         string `json:"code"`
	MediaType    int    `json:"media_type"`
	TakenAt      int64  `json:"taken_at"`
	LikeCount    int    `json:"like_count"`
	CommentCount int    `json:"comment_count"`
	Caption      struct {
		Text string `json:"text"`
	} `json:"caption"`
}

// Permalink returns the public URL of the media.
func (m *Media) Permalink() string {
	if m.Code == "" {
		return ""
	}
	return IGWebBaseURL + "p/" + m.Code + "/"
}

// TypeTag returns a human-readable media type.
func (m *Media) TypeTag() string {
	switch m.MediaType {
	case MediaTypePhoto:
		return "photo"
	case MediaTypeVideo:
		return "video"
	case MediaTypeAlbum:
		return "album"
	}
	return "unknown"
}

// ClipUpload describes a reel upload. Extra is merged verbatim into the
// remote configure payload.
type ClipUpload struct {
	Path      string
	Caption   string
	Thumbnail string
	Extra     map[string]any
}

// configureResponse is the response shape of the media configure endpoints.
type configureResponse struct {
	Media  *Media `json:"media"`
	Status string `json:"status"`
}

// UploadPhoto publishes a photo to the feed.
func (c *Client) UploadPhoto(ctx context.Context, path, caption string) (*Media, error) {
	uploadID := newUploadID()

	size := fileSize(path)
	c.report(ProgressReport{Step: "INIT", Current: 1, Total: 1, TotalBytes: size})

	if err := c.ruploadPhoto(path, uploadID, false, 1, 1); err != nil {
		return nil, err
	}

	c.report(ProgressReport{Step: "CONFIG", Current: 1, Total: 1, TotalBytes: size})
	return c.configure(ctx, "media/configure/", map[string]any{
		"upload_id":   uploadID,
		"caption":     caption,
		"source_type": "library",
	})
}

// UploadVideo publishes a video to the feed. An empty thumbnail path makes
// the client extract a cover frame itself.
func (c *Client) UploadVideo(ctx context.Context, path, caption, thumbnail string) (*Media, error) {
	info, err := media.Probe(ctx, path)
	if err != nil {
		return nil, &APIError{Message: err.Error(), ErrorType: "media_error"}
	}

	uploadID := newUploadID()

	size := fileSize(path)
	c.report(ProgressReport{Step: "INIT", Current: 1, Total: 1, TotalBytes: size})

	if err := c.ruploadVideo(path, uploadID, info, false, 1, 1); err != nil {
		return nil, err
	}

	if err := c.uploadCoverFrame(ctx, path, thumbnail, uploadID); err != nil {
		return nil, err
	}

	c.report(ProgressReport{Step: "CONFIG", Current: 1, Total: 1, TotalBytes: size})
	return c.configure(ctx, "media/configure/?video=1", map[string]any{
		"upload_id":   uploadID,
		"caption":     caption,
		"source_type": "library",
		"length":      info.Duration,
		"clips": []map[string]any{
			{"length": info.Duration, "source_type": "library"},
		},
		"poster_frame_index": 0,
		"audio_muted":        false,
	})
}

// UploadClip publishes a reel. Same transport as a feed video but configured
// through the clips endpoint, whose encoding pipeline is the flakiest part
// of the platform; retrying is the caller's business.
func (c *Client) UploadClip(ctx context.Context, up ClipUpload) (*Media, error) {
	info, err := media.Probe(ctx, up.Path)
	if err != nil {
		return nil, &APIError{Message: err.Error(), ErrorType: "media_error"}
	}

	uploadID := newUploadID()

	size := fileSize(up.Path)
	c.report(ProgressReport{Step: "INIT", Current: 1, Total: 1, TotalBytes: size})

	if err := c.ruploadVideo(up.Path, uploadID, info, false, 1, 1); err != nil {
		return nil, err
	}

	if err := c.uploadCoverFrame(ctx, up.Path, up.Thumbnail, uploadID); err != nil {
		return nil, err
	}

	data := map[string]any{
		"upload_id":     uploadID,
		"caption":       up.Caption,
		"source_type":   "library",
		"length":        info.Duration,
		"clips_share":   true,
		"share_to_feed": true,
		"clips": []map[string]any{
			{"length": info.Duration, "source_type": "library"},
		},
		"poster_frame_index": 0,
		"audio_muted":        false,
	}
	for k, v := range up.Extra {
		data[k] = v
	}

	c.report(ProgressReport{Step: "CONFIG", Current: 1, Total: 1, TotalBytes: size})
	return c.configure(ctx, "media/configure_to_clips/", data)
}

// UploadAlbum publishes several photos/videos as a single sidecar post.
func (c *Client) UploadAlbum(ctx context.Context, paths []string, caption string) (*Media, error) {
	var total int64
	var videos []string
	for _, p := range paths {
		total += fileSize(p)
		if media.IsVideo(p) {
			videos = append(videos, p)
		}
	}

	c.report(ProgressReport{Step: "PREPARE", Current: 1, Total: len(paths), TotalBytes: total})
	probed, err := media.ProbeAll(ctx, videos)
	if err != nil {
		return nil, &APIError{Message: err.Error(), ErrorType: "media_error"}
	}

	c.report(ProgressReport{Step: "INIT", Current: 1, Total: len(paths), TotalBytes: total})

	children := make([]map[string]any, 0, len(paths))

	for i, path := range paths {
		uploadID := newUploadID()
		child := map[string]any{"upload_id": uploadID, "source_type": "library"}

		if info, isVideo := probed[path]; isVideo {
			if err := c.ruploadVideo(path, uploadID, info, true, i+1, len(paths)); err != nil {
				return nil, fmt.Errorf("album item %d: %w", i+1, err)
			}
			if err := c.uploadCoverFrame(ctx, path, "", uploadID); err != nil {
				return nil, fmt.Errorf("album item %d: %w", i+1, err)
			}
			child["length"] = info.Duration
			child["clips"] = []map[string]any{
				{"length": info.Duration, "source_type": "library"},
			}
		} else {
			if err := c.ruploadPhoto(path, uploadID, true, i+1, len(paths)); err != nil {
				return nil, fmt.Errorf("album item %d: %w", i+1, err)
			}
		}

		children = append(children, child)
	}

	c.report(ProgressReport{Step: "CONFIG", Current: len(paths), Total: len(paths), TotalBytes: total})
	return c.configure(ctx, "media/configure_sidecar/", map[string]any{
		"caption":           caption,
		"client_sidecar_id": newUploadID(),
		"children_metadata": children,
	})
}

// uploadCoverFrame ships the video thumbnail, extracting one when the caller
// did not provide it.
func (c *Client) uploadCoverFrame(ctx context.Context, videoPath, thumbnail, uploadID string) error {
	owned := false
	if thumbnail == "" {
		extracted, err := media.ExtractThumbnail(ctx, videoPath)
		if err != nil {
			return &APIError{Message: err.Error(), ErrorType: "media_error"}
		}
		thumbnail = extracted
		owned = true
	}
	if owned {
		defer os.RemoveAll(filepath.Dir(thumbnail))
	}

	return c.ruploadFile(thumbnail, uploadID, ruploadParams{
		mediaType: "2", // cover frame of a video
		entity:    "rupload_igphoto",
	}, 0, 0)
}

type ruploadParams struct {
	mediaType string
	entity    string
	sidecar   bool
	duration  int // milliseconds, video only
	width     int
	height    int
}

// ruploadPhoto uploads a photo binary.
func (c *Client) ruploadPhoto(path, uploadID string, sidecar bool, idx, total int) error {
	return c.ruploadFile(path, uploadID, ruploadParams{
		mediaType: "1",
		entity:    "rupload_igphoto",
		sidecar:   sidecar,
	}, idx, total)
}

// ruploadVideo uploads a video binary.
func (c *Client) ruploadVideo(path, uploadID string, info *media.Info, sidecar bool, idx, total int) error {
	return c.ruploadFile(path, uploadID, ruploadParams{
		mediaType: "2",
		entity:    "rupload_igvideo",
		sidecar:   sidecar,
		duration:  int(info.Duration * 1000),
		width:     info.Width,
		height:    info.Height,
	}, idx, total)
}

// ruploadFile pushes one binary through Instagram's resumable-upload
// endpoint.
func (c *Client) ruploadFile(path, uploadID string, p ruploadParams, idx, total int) error {
	c.applyDelay()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read media file: %w", err)
	}

	params := map[string]any{
		"upload_id":         uploadID,
		"media_type":        p.mediaType,
		"xsharing_user_ids": "[]",
	}
	if p.sidecar {
		params["is_sidecar"] = "1"
	}
	if p.entity == "rupload_igvideo" {
		params["upload_media_duration_ms"] = strconv.Itoa(p.duration)
		params["upload_media_width"] = strconv.Itoa(p.width)
		params["upload_media_height"] = strconv.Itoa(p.height)
		params["is_unified_video"] = "1"
	}
	paramsJSON, _ := json.Marshal(params)

	entityName := fmt.Sprintf("%s_0_%d", uploadID, time.Now().Unix())
	uploadURL := fmt.Sprintf("%s%s/%s", IGWebBaseURL, p.entity, entityName)

	var body io.Reader = bytes.NewReader(data)
	if idx > 0 {
		body = &progressReader{
			reader: body,
			total:  int64(len(data)),
			onRead: func(read, totalBytes int64) {
				c.report(ProgressReport{
					Step:       "UPLOAD",
					Current:    idx,
					Total:      total,
					BytesSent:  read,
					TotalBytes: totalBytes,
				})
			},
		}
	}

	req, err := http.NewRequest(http.MethodPost, uploadURL, body)
	if err != nil {
		return err
	}
	req.ContentLength = int64(len(data))

	contentType := "application/octet-stream"
	if p.entity == "rupload_igphoto" {
		contentType = "image/jpeg"
		if strings.EqualFold(filepath.Ext(path), ".png") {
			contentType = "image/png"
		}
	}

	req.Header.Set("X-Entity-Type", entityContentType(p.entity))
	req.Header.Set("Offset", "0")
	req.Header.Set("X-Instagram-Rupload-Params", string(paramsJSON))
	req.Header.Set("X-Entity-Name", entityName)
	req.Header.Set("X-Entity-Length", strconv.Itoa(len(data)))
	req.Header.Set("Content-Type", contentType)
	c.setWebUploadHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read upload response: %w", err)
	}

	if c.Debug {
		fmt.Printf("[DEBUG] Upload status: %d, body: %s\n", resp.StatusCode, string(respBody))
	}

	if resp.StatusCode != http.StatusOK {
		apiResp := &APIResponse{RawBody: respBody}
		json.Unmarshal(respBody, apiResp)
		return c.handleAPIError(resp.StatusCode, apiResp)
	}

	var uploadResp struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(respBody, &uploadResp); err != nil {
		return fmt.Errorf("failed to parse upload response: %w", err)
	}
	if uploadResp.Status != "ok" {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("upload rejected: status=%s", uploadResp.Status),
			ErrorType:  "media_error",
		}
	}
	return nil
}

func entityContentType(entity string) string {
	if entity == "rupload_igvideo" {
		return "video/mp4"
	}
	return "image/jpeg"
}

// configure attaches caption and metadata to uploaded binaries and makes the
// post visible. A response without a media object is a failure even when the
// call itself did not error.
func (c *Client) configure(ctx context.Context, endpoint string, data map[string]any) (*Media, error) {
	// Give the remote transcode pipeline a moment before configuring.
	select {
	case <-time.After(2 * time.Second):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	c.applyDelay()

	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal configure payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, IGWebBaseURL+"api/v1/"+endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	c.setWebUploadHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("configure request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read configure response: %w", err)
	}

	if c.Debug {
		fmt.Printf("[DEBUG] Configure %s -> %d\n", endpoint, resp.StatusCode)
		fmt.Printf("[DEBUG] Configure body: %s\n", string(body))
	}

	if resp.StatusCode != http.StatusOK {
		apiResp := &APIResponse{RawBody: body}
		json.Unmarshal(body, apiResp)
		return nil, c.handleAPIError(resp.StatusCode, apiResp)
	}

	var confResp configureResponse
	if err := json.Unmarshal(body, &confResp); err != nil {
		return nil, fmt.Errorf("failed to parse configure response: %w", err)
	}
	if confResp.Status != "ok" || confResp.Media == nil {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("configure failed: status=%s", confResp.Status),
			ErrorType:  "media_error",
		}
	}
	return confResp.Media, nil
}

// setWebUploadHeaders sets the browser-shaped headers used by upload and
// configure requests.
func (c *Client) setWebUploadHeaders(req *http.Request) {
	req.Header.Set("User-Agent", WebUserAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("X-CSRFToken", c.CSRFToken())
	req.Header.Set("X-IG-App-ID", IGWebAppID)
	req.Header.Set("X-Web-Device-Id", c.UUID)
	req.Header.Set("X-ASBD-ID", "359341")
	req.Header.Set("X-IG-WWW-Claim", c.IgWwwClaim)
	req.Header.Set("Origin", "https://www.instagram.com")
	req.Header.Set("Referer", IGWebBaseURL+"create/details/")
	req.Header.Set("Sec-Fetch-Dest", "empty")
	req.Header.Set("Sec-Fetch-Mode", "cors")
	req.Header.Set("Sec-Fetch-Site", "same-origin")

	c.mu.RLock()
	var cookieStrings []string
	for name, value := range c.Cookies {
		cookieStrings = append(cookieStrings, fmt.Sprintf("%s=%s", name, value))
	}
	c.mu.RUnlock()
	if len(cookieStrings) > 0 {
		req.Header.Set("Cookie", strings.Join(cookieStrings, "; "))
	}
}

// newUploadID derives an upload ID from the current time, the way the apps
// do.
func newUploadID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
