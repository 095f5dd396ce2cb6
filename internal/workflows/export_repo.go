package workflows

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"codeforge/server/internal/db"
	"codeforge/server/internal/githubx"
	"codeforge/server/internal/store"
	"codeforge/server/internal/workflow"
)

const exportCommitMessage = "Initial commit from Codeforge"

// repoInitDelay gives GitHub time to finish auto-initializing the new repo
// before its default branch ref is read.
const repoInitDelay = 3 * time.Second

type exportPayload struct {
	ProjectID   string `json:"projectId"`
	RepoName    string `json:"repoName"`
	Visibility  string `json:"visibility"`
	Description string `json:"description"`
	GithubToken string `json:"githubToken"`
}

func exportRepoFunction(deps Deps) workflow.Function {
	return workflow.Function{
		Name:    "export-to-github",
		Trigger: EventExportRepo,
		CancelOn: []workflow.CancelOn{
			{Event: EventExportCancel, Field: "projectId"},
		},
		Handler:   func(ctx context.Context, run *workflow.Run) error { return exportRepo(ctx, run, deps) },
		OnFailure: func(ctx context.Context, run *workflow.Run, cause error) { exportRepoFailed(ctx, run, deps) },
	}
}

func exportRepo(ctx context.Context, run *workflow.Run, deps Deps) error {
	var payload exportPayload
	if err := run.Payload(&payload); err != nil {
		return workflow.NonRetriable(err)
	}
	if strings.TrimSpace(deps.InternalKey) == "" {
		return workflow.NonRetriable(store.ErrInternalKeyUnset)
	}
	gh := deps.GitHub(payload.GithubToken)

	if err := workflow.Do(ctx, run, "update-project-on-exporting", func(ctx context.Context) error {
		return deps.Store.UpdateExportStatus(deps.InternalKey, payload.ProjectID, store.ExportExporting, "")
	}); err != nil {
		return err
	}

	login, err := workflow.Step(ctx, run, "get-github-user", func(ctx context.Context) (string, error) {
		return gh.AuthenticatedLogin(ctx)
	})
	if err != nil {
		return err
	}

	repo, err := workflow.Step(ctx, run, "create-github-repo", func(ctx context.Context) (*githubx.Repo, error) {
		description := payload.Description
		if description == "" {
			description = "Exported from Codeforge"
		}
		return gh.CreateRepo(ctx, payload.RepoName, description, payload.Visibility == "private")
	})
	if err != nil {
		return err
	}

	if err := run.Sleep(ctx, "wait-for-repo-init", repoInitDelay); err != nil {
		return err
	}

	initialCommit, err := workflow.Step(ctx, run, "get-initial-commit", func(ctx context.Context) (string, error) {
		return gh.BranchHead(ctx, login, payload.RepoName)
	})
	if err != nil {
		return err
	}

	files, err := workflow.Step(ctx, run, "fetch-project-files", func(ctx context.Context) ([]db.File, error) {
		return deps.Store.ProjectFiles(deps.InternalKey, payload.ProjectID)
	})
	if err != nil {
		return err
	}

	paths := buildFilePaths(files)
	if len(paths) == 0 {
		return workflow.NonRetriable(errors.New("no files to export"))
	}

	treeItems, err := workflow.Step(ctx, run, "create-blobs", func(ctx context.Context) ([]githubx.NewTreeEntry, error) {
		items := make([]githubx.NewTreeEntry, 0, len(paths))
		for _, entry := range paths {
			var content []byte
			binary := false
			switch {
			case entry.file.StorageID != "":
				data, err := deps.Store.BlobData(deps.InternalKey, entry.file.StorageID)
				if err != nil {
					return nil, fmt.Errorf("read blob for %s: %w", entry.path, err)
				}
				content = data
				binary = true
			default:
				content = []byte(entry.file.Content)
			}
			sha, err := gh.CreateBlob(ctx, login, payload.RepoName, content, binary)
			if err != nil {
				return nil, fmt.Errorf("create blob for %s: %w", entry.path, err)
			}
			items = append(items, githubx.NewTreeEntry{Path: entry.path, SHA: sha})
		}
		return items, nil
	})
	if err != nil {
		return err
	}
	if len(treeItems) == 0 {
		return workflow.NonRetriable(errors.New("failed to create any file blobs"))
	}

	treeSHA, err := workflow.Step(ctx, run, "create-tree", func(ctx context.Context) (string, error) {
		return gh.CreateTree(ctx, login, payload.RepoName, treeItems)
	})
	if err != nil {
		return err
	}

	commitSHA, err := workflow.Step(ctx, run, "create-commit", func(ctx context.Context) (string, error) {
		return gh.CreateCommit(ctx, login, payload.RepoName, exportCommitMessage, treeSHA, []string{initialCommit})
	})
	if err != nil {
		return err
	}

	if err := workflow.Do(ctx, run, "update-branch-ref", func(ctx context.Context) error {
		return gh.UpdateBranchHead(ctx, login, payload.RepoName, commitSHA)
	}); err != nil {
		return err
	}

	return workflow.Do(ctx, run, "update-project-on-success", func(ctx context.Context) error {
		return deps.Store.UpdateExportStatus(deps.InternalKey, payload.ProjectID, store.ExportCompleted, repo.HTMLURL)
	})
}

type pathedFile struct {
	path string
	file db.File
}

// buildFilePaths resolves every text or binary file to its slash-joined
// path from the root. Folders only contribute path segments.
func buildFilePaths(files []db.File) []pathedFile {
	byID := make(map[string]db.File, len(files))
	for _, file := range files {
		byID[file.FileID] = file
	}
	var fullPath func(file db.File) string
	fullPath = func(file db.File) string {
		if file.ParentID == "" {
			return file.Name
		}
		parent, ok := byID[file.ParentID]
		if !ok {
			return file.Name
		}
		return fullPath(parent) + "/" + file.Name
	}
	out := make([]pathedFile, 0, len(files))
	for _, file := range files {
		if file.Type != store.FileTypeFile {
			continue
		}
		out = append(out, pathedFile{path: fullPath(file), file: file})
	}
	return out
}

func exportRepoFailed(ctx context.Context, run *workflow.Run, deps Deps) {
	if strings.TrimSpace(deps.InternalKey) == "" {
		return
	}
	var payload exportPayload
	if err := run.Payload(&payload); err != nil {
		return
	}
	if err := deps.Store.UpdateExportStatus(deps.InternalKey, payload.ProjectID, store.ExportFailed, ""); err != nil {
		run.Logger().Error("failed to record export failure", "error", err)
	}
}
