package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"homelink/internal/errors"
)

const (
	binYtdlp  = "yt-dlp"
	binFfmpeg = "ffmpeg"

	cacheDirName = "yt_dlp_cache"
)

// downloadArgs is the fixed yt-dlp argument set used for every
// download: extract audio to 320K mp3 with thumbnail and metadata
// embedded, writing into the cache directory.
func downloadArgs(cacheDir, url string) []string {
	return []string{
		"--output", filepath.Join(cacheDir, "%(title)s.%(ext)s"),
		"--embed-thumbnail",
		"--add-metadata",
		"--extract-audio",
		"--audio-format", "mp3",
		"--audio-quality", "320K",
		url,
	}
}

// ytdlpVersion probes yt-dlp. Its --version output is the bare
// version string.
func ytdlpVersion(ctx context.Context, r Runner) (string, error) {
	out, err := r.Run(ctx, binYtdlp, "--version")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ffmpegVersion probes ffmpeg. The version is the third field of the
// first line of `ffmpeg -version` ("ffmpeg version N.n ...").
func ffmpegVersion(ctx context.Context, r Runner) (string, error) {
	out, err := r.Run(ctx, binFfmpeg, "-version")
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(out, "\n")
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return "", errors.Wrapf(errors.ErrToolFailed, "unexpected ffmpeg version output %q", line)
	}
	return fields[2], nil
}

// resetDir recreates an empty cache directory.
func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return errors.Wrapf(err, "clear cache %s", dir)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.Wrapf(err, "create cache %s", dir)
	}
	return nil
}

func removeDir(dir string) error {
	return os.RemoveAll(dir)
}

// moveDownloads moves every regular file from the cache directory
// into dest, returning the destination paths. os.Rename is tried
// first; a cross-device move falls back to copy and delete.
func moveDownloads(cacheDir, dest string) ([]string, error) {
	if err := os.MkdirAll(dest, 0o750); err != nil {
		return nil, errors.Wrapf(err, "create music folder %s", dest)
	}
	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		return nil, errors.Wrapf(err, "read cache %s", cacheDir)
	}
	var moved []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		src := filepath.Join(cacheDir, e.Name())
		dst := filepath.Join(dest, e.Name())
		if err := os.Rename(src, dst); err != nil {
			if err = copyFile(src, dst); err != nil {
				return moved, err
			}
			_ = os.Remove(src)
		}
		moved = append(moved, dst)
	}
	return moved, nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src) //nolint:gosec // path is inside our own cache dir
	if err != nil {
		return errors.Wrapf(err, "read %s", src)
	}
	if err := os.WriteFile(dst, data, 0o600); err != nil {
		return errors.Wrapf(err, "write %s", dst)
	}
	return nil
}
