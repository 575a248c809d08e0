package importer

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// fetchRepo clones the repository on first sight and pulls afterwards,
// leaving a current checkout at localPath.
func fetchRepo(repoURL, localPath string) error {
	if _, err := os.Stat(localPath); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("check repo path %s: %w", localPath, err)
		}

		slog.Info("cloning repository", "url", repoURL, "path", localPath)
		if _, err := git.PlainClone(localPath, false, &git.CloneOptions{URL: repoURL}); err != nil {
			return fmt.Errorf("clone %s: %w", repoURL, err)
		}
		return nil
	}

	repo, err := git.PlainOpen(localPath)
	if err != nil {
		return fmt.Errorf("open repo at %s: %w", localPath, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree for %s: %w", localPath, err)
	}

	slog.Info("pulling repository", "path", localPath)
	err = worktree.Pull(&git.PullOptions{RemoteName: "origin"})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("pull %s: %w", localPath, err)
	}
	return nil
}

// repoLocalPath maps a git URL to a stable checkout directory under baseDir.
// Handles https URLs and scp-style git@host:owner/repo.git addresses.
func repoLocalPath(baseDir, repoURL string) (string, error) {
	if parsed, err := url.Parse(repoURL); err == nil && (parsed.Scheme == "https" || parsed.Scheme == "http") {
		return filepath.Join(baseDir, parsed.Host, strings.TrimSuffix(parsed.Path, ".git")), nil
	}

	if at := strings.Index(repoURL, "@"); at >= 0 {
		rest := repoURL[at+1:]
		if host, repoPath, ok := strings.Cut(rest, ":"); ok && host != "" && repoPath != "" {
			return filepath.Join(baseDir, host, strings.TrimSuffix(repoPath, ".git")), nil
		}
	}

	return "", fmt.Errorf("unsupported git URL: %s", repoURL)
}

// IsGitURL reports whether a source path looks like a git remote rather
// than a local directory.
func IsGitURL(path string) bool {
	return strings.HasSuffix(path, ".git") ||
		strings.HasPrefix(path, "git@") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "http://")
}
