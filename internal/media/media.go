// Package media inspects local media files with ffprobe and extracts
// video thumbnails with ffmpeg.
package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Info holds the probed metadata of one video file.
type Info struct {
	Path     string
	Width    int
	Height   int
	Duration float64
}

// Probe returns width, height and duration of the video at path.
func Probe(ctx context.Context, path string) (*Info, error) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return nil, fmt.Errorf("ffprobe not found, install FFmpeg: https://ffmpeg.org/download.html")
	}

	cmd := exec.CommandContext(ctx, "ffprobe", "-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=p=0", path)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}

	parts := strings.Split(strings.TrimSpace(string(out)), ",")
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid ffprobe output for %s", path)
	}
	w, _ := strconv.Atoi(parts[0])
	h, _ := strconv.Atoi(parts[1])

	duration, err := probeDuration(ctx, path)
	if err != nil {
		return nil, err
	}

	return &Info{Path: path, Width: w, Height: h, Duration: duration}, nil
}

func probeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("failed to get duration of %s: %w", path, err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration of %s: %w", path, err)
	}
	return duration, nil
}

// ProbeAll probes every path concurrently and returns results keyed by path.
func ProbeAll(ctx context.Context, paths []string) (map[string]*Info, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	var mu sync.Mutex
	infos := make(map[string]*Info, len(paths))

	for _, path := range paths {
		g.Go(func() error {
			info, err := Probe(ctx, path)
			if err != nil {
				return err
			}
			mu.Lock()
			infos[path] = info
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return infos, nil
}

// ExtractThumbnail grabs a frame half a second into the video and writes it
// next to a temp dir as a JPEG. The caller owns the returned file.
func ExtractThumbnail(ctx context.Context, videoPath string) (string, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return "", fmt.Errorf("ffmpeg not found, install FFmpeg: https://ffmpeg.org/download.html")
	}

	tmpDir, err := os.MkdirTemp("", "instagram-thumb-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}

	base := filepath.Base(videoPath)
	thumbPath := filepath.Join(tmpDir, strings.TrimSuffix(base, filepath.Ext(base))+".jpg")

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-i", videoPath,
		"-ss", "0.5",
		"-vframes", "1",
		thumbPath)
	if err := cmd.Run(); err != nil {
		os.RemoveAll(tmpDir)
		return "", fmt.Errorf("thumbnail extraction failed: %w", err)
	}

	return thumbPath, nil
}

// IsVideo reports whether path has a video extension we accept for upload.
func IsVideo(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".mov", ".m4v":
		return true
	}
	return false
}
