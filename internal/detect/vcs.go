package detect

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/projectd/internal/registry"
)

// vcsConfidence is the confidence of a remote-URL match. High, but below
// an exact path match: remotes survive checkouts in unexpected places.
const vcsConfidence = 0.9

// vcsStrategy matches the repository's remote URL against each project's
// known remotes. When the caller did not supply a remote it is read from
// the repository containing the working directory.
type vcsStrategy struct{}

func (s *vcsStrategy) Method() Method { return MethodVCS }

func (s *vcsStrategy) Detect(_ context.Context, dc Context, reg *registry.Registry) (*Candidate, error) {
	remote := dc.VCSRemote
	if remote == "" {
		if dc.CWD == "" {
			return nil, nil
		}
		var err error
		remote, err = originRemote(dc.CWD)
		if err != nil {
			return nil, fmt.Errorf("read origin remote: %w", err)
		}
		if remote == "" {
			return nil, nil
		}
	}

	normalized := normalizeRemote(remote)
	for _, p := range reg.SortedProjects() {
		for _, known := range p.VCSRemotes {
			if normalizeRemote(known) == normalized {
				return &Candidate{
					ProjectID:  p.ID,
					Confidence: vcsConfidence,
					Method:     MethodVCS,
					Evidence:   fmt.Sprintf("remote %s matches registered remote %s", remote, known),
				}, nil
			}
		}
	}

	return nil, nil
}

// normalizeRemote reduces a remote URL to host/path form so the SSH and
// HTTPS spellings of the same repository compare equal:
//
//	git@github.com:org/repo.git  -> github.com/org/repo
//	https://github.com/org/repo  -> github.com/org/repo
func normalizeRemote(url string) string {
	s := strings.TrimSpace(strings.ToLower(url))
	s = strings.TrimSuffix(s, "/")
	s = strings.TrimSuffix(s, ".git")

	for _, scheme := range []string{"https://", "http://", "ssh://", "git://"} {
		s = strings.TrimPrefix(s, scheme)
	}

	// SSH scp-like syntax: user@host:path
	if at := strings.Index(s, "@"); at >= 0 {
		s = s[at+1:]
		if colon := strings.Index(s, ":"); colon >= 0 {
			s = s[:colon] + "/" + s[colon+1:]
		}
	}

	return s
}
