package media

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homelink/internal/bus"
	"homelink/internal/clock"
	"homelink/internal/config"
	"homelink/internal/errors"
	"homelink/internal/testutil"
)

// fakeRunner answers tool invocations from a canned table and records
// every call. A nil handler for a binary simulates a missing tool.
type fakeRunner struct {
	ytdlpOut  string
	ffmpegOut string
	ytdlpErr  error
	ffmpegErr error

	// onDownload runs for yt-dlp invocations that are not --version,
	// letting tests drop files into the cache directory.
	onDownload func(args []string) error

	calls [][]string
}

func (f *fakeRunner) Run(_ context.Context, bin string, args ...string) (string, error) {
	f.calls = append(f.calls, append([]string{bin}, args...))
	switch bin {
	case binYtdlp:
		if len(args) == 1 && args[0] == "--version" {
			return f.ytdlpOut, f.ytdlpErr
		}
		if f.onDownload != nil {
			return "", f.onDownload(args)
		}
		return "", f.ytdlpErr
	case binFfmpeg:
		return f.ffmpegOut, f.ffmpegErr
	}
	return "", errors.ErrToolNotFound
}

func newTestPlugin(t *testing.T, r Runner) *Plugin {
	t.Helper()
	b := bus.New(zerolog.Nop(), clock.RealClock{})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = b.Run(ctx) }()

	dir := t.TempDir()
	cfg := config.MediaConfig{
		MusicFolder:   filepath.Join(dir, "nas", "music"),
		LibraryFolder: filepath.Join(dir, "library"),
	}
	return New(b, cfg, r)
}

// TestFfmpegVersionParsing verifies the version is taken from the
// third field of the first output line.
func TestFfmpegVersionParsing(t *testing.T) {
	r := &fakeRunner{ffmpegOut: "ffmpeg version 6.1.1 Copyright (c) 2000-2023\nbuilt with gcc 13"}
	v, err := ffmpegVersion(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "6.1.1", v)

	r.ffmpegOut = "garbage"
	_, err = ffmpegVersion(context.Background(), r)
	require.ErrorIs(t, err, errors.ErrToolFailed)
}

// TestInitRequiresBothTools verifies downloads stay disabled unless
// both yt-dlp and ffmpeg probe fine.
func TestInitRequiresBothTools(t *testing.T) {
	r := &fakeRunner{ytdlpOut: "2025.06.09", ffmpegErr: testutil.ErrMockExec}
	p := newTestPlugin(t, r)

	require.ErrorIs(t, p.Handle(context.Background(), "init", nil), testutil.ErrMockExec)
	assert.False(t, p.inited)

	err := p.Handle(context.Background(), "download", []string{"https://example.com/v"})
	require.ErrorIs(t, err, errors.ErrToolNotFound)

	r.ffmpegErr = nil
	r.ffmpegOut = "ffmpeg version 6.1.1 Copyright"
	require.NoError(t, p.Handle(context.Background(), "init", nil))
	assert.True(t, p.inited)
	assert.Equal(t, "2025.06.09", p.ytdlpVer)
	assert.Equal(t, "6.1.1", p.ffmpegVer)
}

// TestDownloadMovesTracksIntoMusicFolder verifies the full download
// flow: a clean cache, the fixed yt-dlp argument set, and the result
// moved into the music folder with the cache removed.
func TestDownloadMovesTracksIntoMusicFolder(t *testing.T) {
	r := &fakeRunner{ytdlpOut: "2025.06.09", ffmpegOut: "ffmpeg version 6.1.1 x"}
	p := newTestPlugin(t, r)
	require.NoError(t, p.Handle(context.Background(), "init", nil))

	r.onDownload = func(args []string) error {
		// yt-dlp writes into the directory of the --output template.
		require.Equal(t, "--output", args[0])
		return os.WriteFile(filepath.Join(filepath.Dir(args[1]), "Song.mp3"), []byte("mp3"), 0o600)
	}

	url := "https://example.com/watch?v=abc"
	require.NoError(t, p.Handle(context.Background(), "download", []string{url}))

	track := filepath.Join(p.musicDir, "Song.mp3")
	require.Eventually(t, func() bool {
		if _, err := os.Stat(track); err != nil {
			return false
		}
		_, err := os.Stat(p.cacheDir)
		return os.IsNotExist(err)
	}, 5*time.Second, 10*time.Millisecond, "track not moved into music folder")

	last := r.calls[len(r.calls)-1]
	assert.Equal(t, []string{
		binYtdlp,
		"--output", filepath.Join(p.cacheDir, "%(title)s.%(ext)s"),
		"--embed-thumbnail",
		"--add-metadata",
		"--extract-audio",
		"--audio-format", "mp3",
		"--audio-quality", "320K",
		url,
	}, last)
}

// TestImportMergesIntoLibrary verifies `import` copies the music
// folder into the library without clobbering existing files.
func TestImportMergesIntoLibrary(t *testing.T) {
	p := newTestPlugin(t, &fakeRunner{})
	require.NoError(t, os.MkdirAll(p.musicDir, 0o750))
	require.NoError(t, os.MkdirAll(p.libraryDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(p.musicDir, "new.mp3"), []byte("a"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(p.libraryDir, "old.mp3"), []byte("b"), 0o600))

	require.NoError(t, p.Handle(context.Background(), "import", nil))

	assert.FileExists(t, filepath.Join(p.libraryDir, "new.mp3"))
	assert.FileExists(t, filepath.Join(p.libraryDir, "old.mp3"))
}

// TestBadCommands covers argument validation.
func TestBadCommands(t *testing.T) {
	p := newTestPlugin(t, &fakeRunner{})

	assert.ErrorIs(t, p.Handle(context.Background(), "download", nil), errors.ErrInvalidCommand)
	assert.ErrorIs(t, p.Handle(context.Background(), "bogus", nil), errors.ErrInvalidCommand)
}
