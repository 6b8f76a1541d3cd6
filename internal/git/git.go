package git

import (
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"strings"
)

// ErrNoRemote is returned when a directory has no origin remote.
var ErrNoRemote = errors.New("no origin remote")

// Client reads repository facts from a local checkout.
type Client interface {
	RepoRoot(path string) (string, error)
	RemoteURL(path string) (string, error)
}

// RealClient implements Client using real git commands.
type RealClient struct{}

// NewClient returns a new RealClient.
func NewClient() *RealClient {
	return &RealClient{}
}

func gitCmd(path string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", path}, args...)
	out, err := exec.Command("git", fullArgs...).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (c *RealClient) RepoRoot(path string) (string, error) {
	return gitCmd(path, "rev-parse", "--show-toplevel")
}

func (c *RealClient) RemoteURL(path string) (string, error) {
	out, err := gitCmd(path, "remote", "get-url", "origin")
	if err != nil || out == "" {
		return "", ErrNoRemote
	}
	return out, nil
}

// DetectRepository returns "owner/repo" for the checkout containing path,
// read from its origin remote.
func DetectRepository(c Client, path string) (string, error) {
	if _, err := c.RepoRoot(path); err != nil {
		return "", fmt.Errorf("%s is not inside a git repository: %w", path, err)
	}
	remote, err := c.RemoteURL(path)
	if err != nil {
		return "", err
	}
	owner, repo, err := ExtractOwnerRepo(remote)
	if err != nil {
		return "", err
	}
	return owner + "/" + repo, nil
}

// ExtractOwnerRepo parses a remote URL and returns owner/repo. Any host is
// accepted so GitHub Enterprise remotes work too.
func ExtractOwnerRepo(remoteURL string) (owner, repo string, err error) {
	remoteURL = strings.TrimSpace(remoteURL)

	var path string
	switch {
	case strings.Contains(remoteURL, "://"):
		// https://github.com/owner/repo.git, ssh://git@host/owner/repo.git
		u, perr := url.Parse(remoteURL)
		if perr != nil {
			return "", "", fmt.Errorf("cannot parse remote: %s", remoteURL)
		}
		path = u.Path
	case strings.Contains(remoteURL, ":"):
		// git@github.com:owner/repo.git
		parts := strings.SplitN(remoteURL, ":", 2)
		path = parts[1]
	default:
		return "", "", fmt.Errorf("cannot parse owner/repo from: %s", remoteURL)
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	segments := strings.Split(path, "/")
	if len(segments) != 2 || segments[0] == "" || segments[1] == "" {
		return "", "", fmt.Errorf("cannot parse owner/repo from: %s", remoteURL)
	}
	return segments[0], segments[1], nil
}
