// Package repofetcher implements component C5: acquiring a local working
// tree for a remote repository and enumerating the source files inside it
// worth chunking.
package repofetcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"codelore/internal/apperr"
)

// allowedExtensions is the closed set of source file extensions worth
// indexing.
var allowedExtensions = map[string]bool{
	"cs": true, "java": true, "py": true, "js": true, "ts": true, "go": true,
	"cpp": true, "c": true, "h": true, "hpp": true, "php": true, "rb": true,
	"rs": true, "kt": true, "scala": true, "swift": true, "dart": true,
	"vue": true, "jsx": true, "tsx": true,
}

// deniedDirs is the closed set of directory names never walked into.
var deniedDirs = map[string]bool{
	"node_modules": true, "bin": true, "obj": true, ".git": true,
	"packages": true, "target": true, "build": true, "dist": true,
	".next": true, ".nuxt": true, "vendor": true, "__pycache__": true,
	".pytest_cache": true, "coverage": true, ".coverage": true,
	".nyc_output": true, "bower_components": true,
}

// maxFileSize caps how large a single file can be before list_code_files
// skips it, so one generated or vendored file can't dominate an index run.
const maxFileSize = 1 << 20 // 1 MiB

// maxRepoNameLen is the length a sanitized repo name is truncated to
// (spec §3: "length <= 100").
const maxRepoNameLen = 100

// unsafeRepoNameChars matches the reserved filesystem characters spec §4.5
// names verbatim: {<>:"/\|?*} plus any ASCII control character.
var unsafeRepoNameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// Fetcher acquires and enumerates repository working trees under a single
// base storage directory.
type Fetcher struct {
	storagePath string
	auth        *http.BasicAuth
}

// New builds a Fetcher rooted at storagePath. token, if non-empty, is sent
// as HTTP basic auth for clones/pulls against private repositories.
func New(storagePath, token string) *Fetcher {
	f := &Fetcher{storagePath: storagePath}
	if token != "" {
		f.auth = &http.BasicAuth{Username: "token", Password: token}
	}
	return f
}

// SanitizeRepoName maps an arbitrary repo name to a safe directory name
// per spec §4.5: replace any of {<>:"/\|?*} and control characters with
// '_', then truncate to maxRepoNameLen characters.
func SanitizeRepoName(name string) string {
	sanitized := unsafeRepoNameChars.ReplaceAllString(name, "_")
	if sanitized == "" {
		sanitized = "repo"
	}
	if len(sanitized) > maxRepoNameLen {
		sanitized = sanitized[:maxRepoNameLen]
	}
	return sanitized
}

// Fetch clones url into storagePath/<sanitized repoName> if absent, or
// fast-forward-pulls it if present. It never produces a merge commit: if
// the local and remote branches have diverged, it returns an error instead
// of merging.
func (f *Fetcher) Fetch(ctx context.Context, url, repoName string) (string, error) {
	dir := filepath.Join(f.storagePath, SanitizeRepoName(repoName))

	if _, err := os.Stat(filepath.Join(dir, ".git")); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
			return "", fmt.Errorf("repofetcher: %w: %v", apperr.ErrFetch, err)
		}
		_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
			URL:  url,
			Auth: f.auth,
		})
		if err != nil {
			return "", fmt.Errorf("repofetcher: %w: clone: %v", apperr.ErrFetch, err)
		}
		return dir, nil
	}

	repo, err := git.PlainOpen(dir)
	if err != nil {
		return "", fmt.Errorf("repofetcher: %w: open: %v", apperr.ErrFetch, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("repofetcher: %w: worktree: %v", apperr.ErrFetch, err)
	}
	err = wt.PullContext(ctx, &git.PullOptions{RemoteName: "origin", Auth: f.auth})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return "", fmt.Errorf("repofetcher: %w: pull: %v", apperr.ErrFetch, err)
	}
	return dir, nil
}

// ListCodeFiles walks localPath and returns every file whose extension is
// in the allow-list, skipping symlinks, oversized files, and any
// deny-listed directory.
func (f *Fetcher) ListCodeFiles(localPath string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(localPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != localPath && deniedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		if !allowedExtensions[ext] {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() == 0 || info.Size() > maxFileSize {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("repofetcher: %w: walk: %v", apperr.ErrFetch, err)
	}
	return files, nil
}

// Read returns filePath's contents.
func (f *Fetcher) Read(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("repofetcher: %w: read %s: %v", apperr.ErrFetch, filePath, err)
	}
	return data, nil
}
