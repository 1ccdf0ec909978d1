// Package gitops publishes scaffolded changes to a git remote and links to the change request
// that merges them.
package gitops

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	bkErrors "github.com/bnookala/spk/internal/errors"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

const (
	DefaultRemoteName = "origin"
	// HLDInitBranch is the branch `hld init` publishes its scaffolding on.
	HLDInitBranch = "spk-hld-init"

	defaultAuthorName  = "spk"
	defaultAuthorEmail = "spk@users.noreply.github.com"
)

// Repository is a hosted git repository.
type Repository struct {
	ID        string
	Name      string
	RemoteURL string
	WebURL    string
	Created   bool
}

// PublishOptions control how changes are committed and pushed.
type PublishOptions struct {
	Message     string
	AuthorName  string
	AuthorEmail string
	// AccessToken is sent as HTTP basic auth when set.
	AccessToken string
	Remote      string
}

// ChangeRequest identifies a pushed branch and the page that opens a pull request for it.
// URL is empty when the remote's host is not recognised.
type ChangeRequest struct {
	Branch    string
	RemoteURL string
	URL       string
}

// CheckoutCommitPushCreateChangeRequest creates and checks out branch in the repository at
// dir, commits every change in the worktree, pushes the branch and returns the link to open
// a change request for it.
func CheckoutCommitPushCreateChangeRequest(ctx context.Context, dir, branch string, opts PublishOptions) (ChangeRequest, error) {
	if branch == "" {
		return ChangeRequest{}, bkErrors.NewValidationError(nil, "branch name cannot be empty")
	}
	remoteName := opts.Remote
	if remoteName == "" {
		remoteName = DefaultRemoteName
	}

	repo, err := git.PlainOpen(dir)
	if err != nil {
		return ChangeRequest{}, bkErrors.NewGitOpError(err, fmt.Sprintf("opening repository at %s", dir))
	}

	wt, err := repo.Worktree()
	if err != nil {
		return ChangeRequest{}, bkErrors.NewGitOpError(err, "opening worktree")
	}

	if err := checkout(repo, wt, branch); err != nil {
		return ChangeRequest{}, err
	}

	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return ChangeRequest{}, bkErrors.NewGitOpError(err, "staging changes")
	}

	message := opts.Message
	if message == "" {
		message = fmt.Sprintf("Changes from spk on %s", branch)
	}
	if _, err := wt.Commit(message, &git.CommitOptions{Author: signature(opts)}); err != nil {
		return ChangeRequest{}, bkErrors.NewGitOpError(err, "committing changes")
	}

	remote, err := repo.Remote(remoteName)
	if err != nil {
		return ChangeRequest{}, bkErrors.NewGitOpError(err, fmt.Sprintf("resolving remote %s", remoteName))
	}
	if len(remote.Config().URLs) == 0 {
		return ChangeRequest{}, bkErrors.NewGitOpError(nil, fmt.Sprintf("remote %s has no URL", remoteName))
	}
	remoteURL := remote.Config().URLs[0]

	if err := pushBranch(ctx, repo, remoteName, branch, opts.AccessToken); err != nil {
		return ChangeRequest{}, err
	}

	return ChangeRequest{
		Branch:    branch,
		RemoteURL: remoteURL,
		URL:       ChangeRequestURL(remoteURL, branch),
	}, nil
}

// Clone checks out branch of remoteURL into dir. It returns false without error when the remote
// is empty or has no such branch, leaving dir for InitAndPush to initialise.
func Clone(ctx context.Context, dir, remoteURL, branch, accessToken string) (bool, error) {
	opts := &git.CloneOptions{
		URL:           remoteURL,
		RemoteName:    DefaultRemoteName,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		SingleBranch:  true,
	}
	if accessToken != "" {
		opts.Auth = &http.BasicAuth{Username: defaultAuthorName, Password: accessToken}
	}

	_, err := git.PlainCloneContext(ctx, dir, false, opts)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, transport.ErrEmptyRemoteRepository),
		errors.Is(err, plumbing.ErrReferenceNotFound),
		errors.Is(err, git.NoMatchingRefSpecError{}):
		return false, nil
	default:
		return false, bkErrors.NewGitOpError(err, fmt.Sprintf("cloning %s", remoteURL))
	}
}

// InitAndPush commits the contents of dir on branch and pushes it to remoteURL. dir is
// initialised as a repository when it is not one already. Nothing is pushed when dir already
// has a commit and no changes.
func InitAndPush(ctx context.Context, dir, remoteURL, branch string, opts PublishOptions) error {
	repo, err := git.PlainOpen(dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = git.PlainInitWithOptions(dir, &git.PlainInitOptions{
			InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName(branch)},
		})
	}
	if err != nil {
		return bkErrors.NewGitOpError(err, fmt.Sprintf("initialising repository at %s", dir))
	}

	remoteName := opts.Remote
	if remoteName == "" {
		remoteName = DefaultRemoteName
	}
	if _, err := repo.Remote(remoteName); errors.Is(err, git.ErrRemoteNotFound) {
		_, err = repo.CreateRemote(&config.RemoteConfig{Name: remoteName, URLs: []string{remoteURL}})
		if err != nil {
			return bkErrors.NewGitOpError(err, fmt.Sprintf("adding remote %s", remoteName))
		}
	}

	wt, err := repo.Worktree()
	if err != nil {
		return bkErrors.NewGitOpError(err, "opening worktree")
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return bkErrors.NewGitOpError(err, "staging changes")
	}

	status, err := wt.Status()
	if err != nil {
		return bkErrors.NewGitOpError(err, "reading worktree status")
	}
	if _, headErr := repo.Head(); headErr == nil && status.IsClean() {
		return nil
	}

	message := opts.Message
	if message == "" {
		message = "Initial commit from spk"
	}
	if _, err := wt.Commit(message, &git.CommitOptions{Author: signature(opts), AllowEmptyCommits: true}); err != nil {
		return bkErrors.NewGitOpError(err, "committing changes")
	}

	return pushBranch(ctx, repo, remoteName, branch, opts.AccessToken)
}

func pushBranch(ctx context.Context, repo *git.Repository, remoteName, branch, accessToken string) error {
	ref := plumbing.NewBranchReferenceName(branch)
	push := &git.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   []config.RefSpec{config.RefSpec(fmt.Sprintf("%s:%s", ref, ref))},
	}
	if accessToken != "" {
		push.Auth = &http.BasicAuth{Username: defaultAuthorName, Password: accessToken}
	}

	if err := repo.PushContext(ctx, push); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return bkErrors.NewGitOpError(err, fmt.Sprintf("pushing %s to %s", branch, remoteName))
	}
	return nil
}

func checkout(repo *git.Repository, wt *git.Worktree, branch string) error {
	ref := plumbing.NewBranchReferenceName(branch)

	_, err := repo.Reference(ref, true)
	create := errors.Is(err, plumbing.ErrReferenceNotFound)
	if err != nil && !create {
		return bkErrors.NewGitOpError(err, fmt.Sprintf("resolving branch %s", branch))
	}

	// Keep lets uncommitted scaffolding follow us onto the new branch
	if err := wt.Checkout(&git.CheckoutOptions{Branch: ref, Create: create, Keep: true}); err != nil {
		return bkErrors.NewGitOpError(err, fmt.Sprintf("checking out %s", branch))
	}
	return nil
}

func signature(opts PublishOptions) *object.Signature {
	name, email := opts.AuthorName, opts.AuthorEmail
	if name == "" {
		name = defaultAuthorName
	}
	if email == "" {
		email = defaultAuthorEmail
	}
	return &object.Signature{Name: name, Email: email, When: time.Now()}
}

// ChangeRequestURL returns the web page that creates a pull request from branch on the
// repository at remoteURL. Azure Repos and GitHub remotes are recognised.
func ChangeRequestURL(remoteURL, branch string) string {
	web := webURL(remoteURL)
	if web == nil {
		return ""
	}

	switch {
	case web.Host == "dev.azure.com" || strings.HasSuffix(web.Host, ".visualstudio.com"):
		return fmt.Sprintf("%s/pullrequestcreate?sourceRef=%s", web.String(), url.QueryEscape(branch))
	case web.Host == "github.com":
		return fmt.Sprintf("%s/compare/%s?expand=1", web.String(), branch)
	default:
		return ""
	}
}

// webURL turns https and scp-style remotes into an https URL without credentials or the .git
// suffix.
func webURL(remoteURL string) *url.URL {
	raw := strings.TrimSpace(remoteURL)

	if strings.HasPrefix(raw, "git@") {
		hostPath := strings.TrimPrefix(raw, "git@")
		host, path, ok := strings.Cut(hostPath, ":")
		if !ok {
			return nil
		}
		// Azure Repos ssh remotes look like git@ssh.dev.azure.com:v3/org/project/repo
		if host == "ssh.dev.azure.com" {
			parts := strings.Split(strings.TrimPrefix(path, "v3/"), "/")
			if len(parts) != 3 {
				return nil
			}
			host = "dev.azure.com"
			path = fmt.Sprintf("%s/%s/_git/%s", parts[0], parts[1], parts[2])
		}
		raw = fmt.Sprintf("https://%s/%s", host, path)
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return nil
	}

	u.User = nil
	u.Path = strings.TrimSuffix(strings.TrimSuffix(u.Path, "/"), ".git")
	u.RawQuery = ""
	u.Fragment = ""
	return u
}

// HTTPSURL returns the https form of remoteURL without credentials, or "" when remoteURL is
// not a recognisable remote.
func HTTPSURL(remoteURL string) string {
	web := webURL(remoteURL)
	if web == nil {
		return ""
	}
	return web.String()
}

// RepositoryName is the last path segment of remoteURL without the .git suffix.
func RepositoryName(remoteURL string) string {
	if web := webURL(remoteURL); web != nil {
		return path.Base(web.Path)
	}
	trimmed := strings.TrimSuffix(strings.TrimSuffix(remoteURL, "/"), ".git")
	if i := strings.LastIndexAny(trimmed, "/:"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// OriginURLs returns the URLs of the origin remote of the repository containing dir.
func OriginURLs(dir string) ([]string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, err
	}

	c, err := repo.Config()
	if err != nil {
		return nil, err
	}

	origin, ok := c.Remotes[DefaultRemoteName]
	if !ok {
		return nil, nil
	}
	return origin.URLs, nil
}
