package nas

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"homelink/internal/errors"
)

// FileMeta describes one file in the share. Filename is always
// slash-separated and relative to the share root; mtimes are second
// precision so they survive the RFC3339 wire format.
type FileMeta struct {
	Filename string    `json:"filename"`
	Hash     string    `json:"hash"`
	MTime    time.Time `json:"mtime"`
}

// FileList is the share manifest: every file with its content hash,
// plus a hash over the whole listing for cheap comparison.
type FileList struct {
	Files []FileMeta `json:"file_list"`
	Hash  string     `json:"hash_str"`
}

// hashBytes is sha256 in lowercase hex.
func hashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// BuildFileList walks root and produces its manifest. Unreadable files
// abort the build; a partial manifest would sync deletions that never
// happened.
func BuildFileList(root string) (*FileList, error) {
	var files []FileMeta

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, "failed to walk %s", path)
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return errors.Wrapf(err, "failed to relativize %s", path)
		}

		content, err := os.ReadFile(path) //nolint:gosec // path is under root
		if err != nil {
			return errors.Wrapf(err, "failed to read %s", path)
		}
		info, err := d.Info()
		if err != nil {
			return errors.Wrapf(err, "failed to stat %s", path)
		}

		files = append(files, FileMeta{
			Filename: filepath.ToSlash(rel),
			Hash:     hashBytes(content),
			MTime:    info.ModTime().UTC().Truncate(time.Second),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Filename < files[j].Filename })

	parts := make([]string, len(files))
	for i, f := range files {
		parts[i] = f.Filename + ":" + f.Hash
	}

	return &FileList{
		Files: files,
		Hash:  hashBytes([]byte(strings.Join(parts, "|"))),
	}, nil
}

// Find returns the entry for filename, if present.
func (l *FileList) Find(filename string) (FileMeta, bool) {
	for _, f := range l.Files {
		if f.Filename == filename {
			return f, true
		}
	}
	return FileMeta{}, false
}

// ActionType says which direction a file moves during a sync round.
type ActionType int

const (
	// ActionGet pulls the server's copy down.
	ActionGet ActionType = iota

	// ActionPut pushes the local copy up.
	ActionPut
)

// SyncAction is one transfer decided by Diff.
type SyncAction struct {
	Type     ActionType
	Filename string
	MTime    time.Time
}

// Diff compares the server manifest against the local one and decides
// transfers. Files diverging on both sides go to whoever touched them
// last; files only one side has are copied to the other.
func Diff(server, local *FileList) []SyncAction {
	var actions []SyncAction

	for _, sf := range server.Files {
		lf, ok := local.Find(sf.Filename)
		if !ok {
			actions = append(actions, SyncAction{Type: ActionGet, Filename: sf.Filename, MTime: sf.MTime})
			continue
		}
		if lf.Hash == sf.Hash && lf.MTime.Equal(sf.MTime) {
			continue
		}
		if lf.MTime.After(sf.MTime) {
			actions = append(actions, SyncAction{Type: ActionPut, Filename: sf.Filename, MTime: lf.MTime})
		} else {
			actions = append(actions, SyncAction{Type: ActionGet, Filename: sf.Filename, MTime: sf.MTime})
		}
	}

	for _, lf := range local.Files {
		if _, ok := server.Find(lf.Filename); !ok {
			actions = append(actions, SyncAction{Type: ActionPut, Filename: lf.Filename, MTime: lf.MTime})
		}
	}

	return actions
}
