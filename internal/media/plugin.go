package media

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	cp "github.com/otiai10/copy"

	"homelink/internal/bus"
	"homelink/internal/config"
	"homelink/internal/errors"
	"homelink/internal/plugin"
)

// PluginName is the bus address of the media plugin.
const PluginName = "media"

// Plugin downloads music with yt-dlp into the share's music folder
// and can copy the folder into the media server's library.
type Plugin struct {
	plugin.Base

	runner      Runner
	musicDir    string
	libraryDir  string
	cacheDir    string
	ytdlpVer    string
	ffmpegVer   string
	inited      bool
	downloading sync.Mutex
}

// New creates the media plugin. The tools are probed lazily via the
// `init` action so the daemon starts fine on nodes without them.
func New(b *bus.Bus, cfg config.MediaConfig, r Runner) *Plugin {
	return &Plugin{
		Base:       plugin.NewBase(PluginName, b),
		runner:     r,
		musicDir:   cfg.MusicFolder,
		libraryDir: cfg.LibraryFolder,
		cacheDir:   filepath.Join(filepath.Dir(cfg.MusicFolder), cacheDirName),
	}
}

// Handle implements plugin.Plugin.
//
// Actions:
//
//	init            probe yt-dlp and ffmpeg, enable downloads
//	download <url>  fetch a track as 320K mp3 into the music folder
//	import          copy the music folder into the library folder
//	show            print tool versions and folders
func (p *Plugin) Handle(ctx context.Context, action string, args []string) error {
	switch action {
	case "init":
		return p.handleInit(ctx)
	case "download":
		if len(args) < 1 {
			return fmt.Errorf("%w: media download needs a url", errors.ErrInvalidCommand)
		}
		return p.handleDownload(ctx, args[0])
	case "import":
		return p.handleImport()
	case "show":
		p.handleShow()
		return nil
	default:
		return fmt.Errorf("%w: media %s", errors.ErrInvalidCommand, action)
	}
}

// handleInit probes both tools. Downloads stay disabled unless both
// probes succeed, since yt-dlp needs ffmpeg for the mp3 conversion.
func (p *Plugin) handleInit(ctx context.Context) error {
	yv, err := ytdlpVersion(ctx, p.runner)
	if err != nil {
		p.Infof("yt-dlp unavailable: %v", err)
		return err
	}
	fv, err := ffmpegVersion(ctx, p.runner)
	if err != nil {
		p.Infof("ffmpeg unavailable: %v", err)
		return err
	}
	p.ytdlpVer, p.ffmpegVer = yv, fv
	p.inited = true
	p.Infof("media ready: yt-dlp %s, ffmpeg %s", yv, fv)
	return nil
}

// handleDownload runs yt-dlp in the background so the bus loop is not
// held for the length of the download. Downloads are serialized; they
// share the cache directory.
func (p *Plugin) handleDownload(ctx context.Context, url string) error {
	if !p.inited {
		p.Infof("media not inited, run `p media init` first")
		return errors.ErrToolNotFound
	}
	p.Infof("download: %s", url)
	go func() {
		p.downloading.Lock()
		defer p.downloading.Unlock()
		if err := p.download(ctx, url); err != nil {
			p.Infof("download failed: %v", err)
			return
		}
		p.Infof("download ok: %s", url)
	}()
	return nil
}

// download fetches into a clean cache directory, then moves the
// results into the music folder. The cache is removed afterwards so a
// partial download never leaks into the share.
func (p *Plugin) download(ctx context.Context, url string) error {
	if err := resetDir(p.cacheDir); err != nil {
		return err
	}
	defer func() { _ = removeDir(p.cacheDir) }()

	if _, err := p.runner.Run(ctx, binYtdlp, downloadArgs(p.cacheDir, url)...); err != nil {
		return err
	}
	moved, err := moveDownloads(p.cacheDir, p.musicDir)
	if err != nil {
		return err
	}
	for _, f := range moved {
		p.Infof("new track: %s", filepath.Base(f))
	}
	return nil
}

// handleImport merges the music folder into the library folder.
func (p *Plugin) handleImport() error {
	if p.libraryDir == "" {
		p.Infof("no library folder configured")
		return nil
	}
	opt := cp.Options{
		OnDirExists: func(_, _ string) cp.DirExistsAction { return cp.Merge },
	}
	if err := cp.Copy(p.musicDir, p.libraryDir, opt); err != nil {
		return errors.Wrapf(err, "import music into %s", p.libraryDir)
	}
	p.Infof("library import done: %s -> %s", p.musicDir, p.libraryDir)
	return nil
}

func (p *Plugin) handleShow() {
	if !p.inited {
		p.Infof("media: not inited")
		return
	}
	p.Infof("media: yt-dlp %s, ffmpeg %s, music %s, library %s",
		p.ytdlpVer, p.ffmpegVer, p.musicDir, p.libraryDir)
}
