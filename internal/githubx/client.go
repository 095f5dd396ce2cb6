// Package githubx wraps the GitHub REST API behind the narrow surface the
// import and export workflows need.
package githubx

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
)

// TreeEntry is one node of a repository tree. Type is "tree" for folders and
// "blob" for files.
type TreeEntry struct {
	Path string
	Type string
	SHA  string
}

// NewTreeEntry describes a blob to place into a tree being created.
type NewTreeEntry struct {
	Path string
	SHA  string
}

type Repo struct {
	Owner   string
	Name    string
	HTMLURL string
}

// Client is the GitHub capability used by the workflows. Implementations
// must be safe for concurrent use.
type Client interface {
	AuthenticatedLogin(ctx context.Context) (string, error)
	// RepoTree fetches the full recursive tree of the default branch,
	// trying main first and falling back to master.
	RepoTree(ctx context.Context, owner, repo string) ([]TreeEntry, error)
	BlobContent(ctx context.Context, owner, repo, sha string) ([]byte, error)
	CreateRepo(ctx context.Context, name, description string, private bool) (*Repo, error)
	BranchHead(ctx context.Context, owner, repo string) (string, error)
	CreateBlob(ctx context.Context, owner, repo string, content []byte, binary bool) (string, error)
	CreateTree(ctx context.Context, owner, repo string, entries []NewTreeEntry) (string, error)
	CreateCommit(ctx context.Context, owner, repo, message, treeSHA string, parents []string) (string, error)
	UpdateBranchHead(ctx context.Context, owner, repo, sha string) error
}

type RESTClient struct {
	gh *github.Client
}

// New builds a client authenticated with the given token. A nil base client
// uses the default transport.
func New(token string, base *http.Client) *RESTClient {
	httpClient := base
	if token = strings.TrimSpace(token); token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		ctx := context.Background()
		if base != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
		}
		httpClient = oauth2.NewClient(ctx, src)
	}
	return &RESTClient{gh: github.NewClient(httpClient)}
}

// NewFromGithub wraps an already configured client, used by tests to point
// at a fake API server.
func NewFromGithub(gh *github.Client) *RESTClient {
	return &RESTClient{gh: gh}
}

func (c *RESTClient) AuthenticatedLogin(ctx context.Context) (string, error) {
	user, _, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("get authenticated user: %w", err)
	}
	login := user.GetLogin()
	if login == "" {
		return "", fmt.Errorf("authenticated user has no login")
	}
	return login, nil
}

func (c *RESTClient) RepoTree(ctx context.Context, owner, repo string) ([]TreeEntry, error) {
	tree, _, err := c.gh.Git.GetTree(ctx, owner, repo, "main", true)
	if err != nil {
		var fallbackErr error
		tree, _, fallbackErr = c.gh.Git.GetTree(ctx, owner, repo, "master", true)
		if fallbackErr != nil {
			return nil, fmt.Errorf("get tree for %s/%s: %w", owner, repo, fallbackErr)
		}
	}
	out := make([]TreeEntry, 0, len(tree.Entries))
	for _, entry := range tree.Entries {
		out = append(out, TreeEntry{
			Path: entry.GetPath(),
			Type: entry.GetType(),
			SHA:  entry.GetSHA(),
		})
	}
	return out, nil
}

func (c *RESTClient) BlobContent(ctx context.Context, owner, repo, sha string) ([]byte, error) {
	blob, _, err := c.gh.Git.GetBlob(ctx, owner, repo, sha)
	if err != nil {
		return nil, fmt.Errorf("get blob %s: %w", sha, err)
	}
	content := blob.GetContent()
	if blob.GetEncoding() == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content, "\n", ""))
		if err != nil {
			return nil, fmt.Errorf("decode blob %s: %w", sha, err)
		}
		return decoded, nil
	}
	return []byte(content), nil
}

func (c *RESTClient) CreateRepo(ctx context.Context, name, description string, private bool) (*Repo, error) {
	created, _, err := c.gh.Repositories.Create(ctx, "", &github.Repository{
		Name:        github.String(name),
		Description: github.String(description),
		Private:     github.Bool(private),
		AutoInit:    github.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("create repo %s: %w", name, err)
	}
	return &Repo{
		Owner:   created.GetOwner().GetLogin(),
		Name:    created.GetName(),
		HTMLURL: created.GetHTMLURL(),
	}, nil
}

func (c *RESTClient) BranchHead(ctx context.Context, owner, repo string) (string, error) {
	ref, _, err := c.gh.Git.GetRef(ctx, owner, repo, "refs/heads/main")
	if err != nil {
		return "", fmt.Errorf("get ref heads/main: %w", err)
	}
	return ref.GetObject().GetSHA(), nil
}

func (c *RESTClient) CreateBlob(ctx context.Context, owner, repo string, content []byte, binary bool) (string, error) {
	blob := &github.Blob{}
	if binary {
		blob.Content = github.String(base64.StdEncoding.EncodeToString(content))
		blob.Encoding = github.String("base64")
	} else {
		blob.Content = github.String(string(content))
		blob.Encoding = github.String("utf-8")
	}
	created, _, err := c.gh.Git.CreateBlob(ctx, owner, repo, blob)
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	return created.GetSHA(), nil
}

func (c *RESTClient) CreateTree(ctx context.Context, owner, repo string, entries []NewTreeEntry) (string, error) {
	items := make([]*github.TreeEntry, 0, len(entries))
	for _, entry := range entries {
		items = append(items, &github.TreeEntry{
			Path: github.String(entry.Path),
			Mode: github.String("100644"),
			Type: github.String("blob"),
			SHA:  github.String(entry.SHA),
		})
	}
	tree, _, err := c.gh.Git.CreateTree(ctx, owner, repo, "", items)
	if err != nil {
		return "", fmt.Errorf("create tree: %w", err)
	}
	return tree.GetSHA(), nil
}

func (c *RESTClient) CreateCommit(ctx context.Context, owner, repo, message, treeSHA string, parents []string) (string, error) {
	parentCommits := make([]*github.Commit, 0, len(parents))
	for _, sha := range parents {
		parentCommits = append(parentCommits, &github.Commit{SHA: github.String(sha)})
	}
	commit, _, err := c.gh.Git.CreateCommit(ctx, owner, repo, &github.Commit{
		Message: github.String(message),
		Tree:    &github.Tree{SHA: github.String(treeSHA)},
		Parents: parentCommits,
	}, nil)
	if err != nil {
		return "", fmt.Errorf("create commit: %w", err)
	}
	return commit.GetSHA(), nil
}

func (c *RESTClient) UpdateBranchHead(ctx context.Context, owner, repo, sha string) error {
	_, _, err := c.gh.Git.UpdateRef(ctx, owner, repo, &github.Reference{
		Ref:    github.String("refs/heads/main"),
		Object: &github.GitObject{SHA: github.String(sha)},
	}, true)
	if err != nil {
		return fmt.Errorf("update ref heads/main: %w", err)
	}
	return nil
}
