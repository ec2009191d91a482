// Package publish commits build outputs into a git working copy and
// optionally pushes them, e.g. to an Overleaf project remote.
package publish

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/texbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/texbuilder/internal/logfields"
	"git.home.luguber.info/inful/texbuilder/internal/retry"
)

// Options configures a Publisher.
type Options struct {
	Repository  string // Local working copy
	URL         string // Remote "origin"; cloned from when Repository is missing
	Branch      string
	Directory   string // Subdirectory for outputs inside the working copy
	Push        bool
	Username    string
	Token       string
	AuthorName  string
	AuthorEmail string
	Now         func() time.Time
	Retry       retry.Policy // Applied to push; the zero value pushes once
}

// Result describes one publish.
type Result struct {
	Commit  string `json:"commit,omitempty"`
	Changed bool   `json:"changed"`
	Pushed  bool   `json:"pushed"`
}

// Publisher writes outputs into a git repository.
type Publisher struct {
	opts Options
}

// New returns a Publisher.
func New(opts Options) *Publisher {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Publisher{opts: opts}
}

func (p *Publisher) auth() transport.AuthMethod {
	if p.opts.Token == "" {
		return nil
	}
	user := p.opts.Username
	if user == "" {
		user = "git"
	}
	return &http.BasicAuth{Username: user, Password: p.opts.Token}
}

// Publish copies files (relative to srcDir) into the working copy, commits
// them with message when anything changed, and pushes when configured.
func (p *Publisher) Publish(ctx context.Context, srcDir string, files []string, message string) (*Result, error) {
	repo, err := p.open(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.selectBranch(repo); err != nil {
		return nil, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, classify(err, "worktree", p.opts.URL)
	}

	for _, rel := range files {
		target := filepath.ToSlash(filepath.Join(p.opts.Directory, rel))
		if err := copyFile(filepath.Join(srcDir, rel), filepath.Join(p.opts.Repository, filepath.FromSlash(target))); err != nil {
			return nil, err
		}
		if _, err := wt.Add(target); err != nil {
			return nil, classify(err, "add", p.opts.URL)
		}
	}

	status, err := wt.Status()
	if err != nil {
		return nil, classify(err, "status", p.opts.URL)
	}
	res := &Result{}
	if status.IsClean() {
		if head, herr := repo.Head(); herr == nil {
			res.Commit = head.Hash().String()
		}
		slog.InfoContext(ctx, "Publish skipped, outputs unchanged", logfields.Path(p.opts.Repository))
		return res, nil
	}

	hash, err := wt.Commit(message, &git.CommitOptions{Author: &object.Signature{
		Name:  p.opts.AuthorName,
		Email: p.opts.AuthorEmail,
		When:  p.opts.Now(),
	}})
	if err != nil {
		return nil, classify(err, "commit", p.opts.URL)
	}
	res.Commit = hash.String()
	res.Changed = true
	slog.InfoContext(ctx, "Outputs committed", logfields.Path(p.opts.Repository), slog.String("commit", res.Commit[:8]))

	if p.opts.Push {
		err := p.opts.Retry.Do(ctx, "git push", func(ctx context.Context) error {
			err := repo.PushContext(ctx, &git.PushOptions{RemoteName: "origin", Auth: p.auth()})
			if err != nil && !stderrors.Is(err, git.NoErrAlreadyUpToDate) {
				return classify(err, "push", p.opts.URL)
			}
			return nil
		})
		if err != nil {
			return res, err
		}
		res.Pushed = true
	}
	return res, nil
}

// open returns the working copy, cloning or initializing it when missing and
// adding "origin" when a URL is configured but the remote is absent.
func (p *Publisher) open(ctx context.Context) (*git.Repository, error) {
	repo, err := git.PlainOpen(p.opts.Repository)
	switch {
	case err == nil:
	case stderrors.Is(err, git.ErrRepositoryNotExists) && p.opts.URL != "":
		opts := &git.CloneOptions{URL: p.opts.URL, Auth: p.auth()}
		if p.opts.Branch != "" {
			opts.ReferenceName = plumbing.NewBranchReferenceName(p.opts.Branch)
			opts.SingleBranch = true
		}
		repo, err = git.PlainCloneContext(ctx, p.opts.Repository, false, opts)
		switch {
		case err == nil:
			slog.InfoContext(ctx, "Publish repository cloned", logfields.URL(p.opts.URL), logfields.Path(p.opts.Repository))
			return repo, nil
		case stderrors.Is(err, transport.ErrEmptyRemoteRepository):
			// A fresh remote has nothing to clone; start locally and push later.
			_ = os.RemoveAll(p.opts.Repository)
			if repo, err = git.PlainInit(p.opts.Repository, false); err != nil {
				return nil, classify(err, "init", p.opts.Repository)
			}
		default:
			return nil, classify(err, "clone", p.opts.URL)
		}
	case stderrors.Is(err, git.ErrRepositoryNotExists):
		repo, err = git.PlainInit(p.opts.Repository, false)
		if err != nil {
			return nil, classify(err, "init", p.opts.Repository)
		}
	default:
		return nil, classify(err, "open", p.opts.Repository)
	}

	if p.opts.URL != "" {
		if _, rerr := repo.Remote("origin"); stderrors.Is(rerr, git.ErrRemoteNotFound) {
			if _, err := repo.CreateRemote(&ggitcfg.RemoteConfig{Name: "origin", URLs: []string{p.opts.URL}}); err != nil {
				return nil, classify(err, "remote", p.opts.URL)
			}
		}
	}
	return repo, nil
}

func (p *Publisher) selectBranch(repo *git.Repository) error {
	if p.opts.Branch == "" {
		return nil
	}
	branch := plumbing.NewBranchReferenceName(p.opts.Branch)

	head, err := repo.Head()
	if err != nil {
		// Unborn HEAD: point it at the branch so the first commit lands there.
		if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
			return repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, branch))
		}
		return classify(err, "head", p.opts.URL)
	}
	if head.Name() == branch {
		return nil
	}

	wt, err := repo.Worktree()
	if err != nil {
		return classify(err, "worktree", p.opts.URL)
	}
	_, refErr := repo.Reference(branch, true)
	if err := wt.Checkout(&git.CheckoutOptions{Branch: branch, Create: refErr != nil, Keep: true}); err != nil {
		return classify(err, "checkout", p.opts.URL)
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "read output for publish").WithContext("path", src).Build()
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create publish directory").WithContext("path", dst).Build()
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write published file").WithContext("path", dst).Build()
	}
	return nil
}

// classify translates go-git errors into classified git, auth or network errors.
func classify(err error, op, url string) error {
	if _, ok := errors.AsClassified(err); ok {
		return err
	}
	l := strings.ToLower(err.Error())

	category := errors.CategoryGit
	switch {
	case stderrors.Is(err, transport.ErrAuthenticationRequired), stderrors.Is(err, transport.ErrAuthorizationFailed),
		strings.Contains(l, "authentication failed"), strings.Contains(l, "invalid credentials"):
		category = errors.CategoryAuth
	case stderrors.Is(err, transport.ErrRepositoryNotFound):
		category = errors.CategoryNotFound
	case strings.Contains(l, "timeout"), strings.Contains(l, "connection reset"), strings.Contains(l, "no route to host"):
		return errors.WrapError(err, errors.CategoryNetwork, "git "+op+" failed").
			WithContext("op", op).WithContext("url", url).Retryable().Build()
	}
	b := errors.WrapError(err, category, "git "+op+" failed").WithContext("op", op).WithContext("url", url)
	if strings.Contains(l, "non-fast-forward") {
		b = b.WithContext("diverged", true)
	}
	return b.Build()
}
