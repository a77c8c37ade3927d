package detect

import (
	"github.com/go-git/go-git/v5"
)

// originRemote returns the first URL of the origin remote of the
// repository containing path, or "" when path is not inside a repository
// or no origin remote is configured.
func originRemote(path string) (string, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err == git.ErrRepositoryNotExists {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	remote, err := repo.Remote("origin")
	if err == git.ErrRemoteNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", nil
	}
	return urls[0], nil
}
