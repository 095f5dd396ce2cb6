package workflows

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"codeforge/server/internal/githubx"
	"codeforge/server/internal/store"
	"codeforge/server/internal/workflow"
)

type importPayload struct {
	Owner       string `json:"owner"`
	Repo        string `json:"repo"`
	ProjectID   string `json:"projectId"`
	GithubToken string `json:"githubToken"`
}

func importRepoFunction(deps Deps) workflow.Function {
	return workflow.Function{
		Name:      "import-github-repo",
		Trigger:   EventImportRepo,
		Handler:   func(ctx context.Context, run *workflow.Run) error { return importRepo(ctx, run, deps) },
		OnFailure: func(ctx context.Context, run *workflow.Run, cause error) { importRepoFailed(ctx, run, deps) },
	}
}

func importRepo(ctx context.Context, run *workflow.Run, deps Deps) error {
	var payload importPayload
	if err := run.Payload(&payload); err != nil {
		return workflow.NonRetriable(err)
	}
	if strings.TrimSpace(deps.InternalKey) == "" {
		return workflow.NonRetriable(store.ErrInternalKeyUnset)
	}
	gh := deps.GitHub(payload.GithubToken)

	if err := workflow.Do(ctx, run, "cleanup-project", func(ctx context.Context) error {
		_, err := deps.Store.Cleanup(deps.InternalKey, payload.ProjectID)
		return err
	}); err != nil {
		return err
	}

	tree, err := workflow.Step(ctx, run, "fetch-repo-tree", func(ctx context.Context) ([]githubx.TreeEntry, error) {
		return gh.RepoTree(ctx, payload.Owner, payload.Repo)
	})
	if err != nil {
		return err
	}

	// Parents must exist before children, so folders go shallowest first.
	folders := make([]githubx.TreeEntry, 0, len(tree))
	for _, entry := range tree {
		if entry.Type == "tree" && entry.Path != "" {
			folders = append(folders, entry)
		}
	}
	sort.SliceStable(folders, func(i, j int) bool {
		return strings.Count(folders[i].Path, "/") < strings.Count(folders[j].Path, "/")
	})

	folderMap, err := workflow.Step(ctx, run, "create-folders", func(ctx context.Context) (map[string]string, error) {
		byPath := map[string]string{}
		for _, folder := range folders {
			name, parentPath := splitPath(folder.Path)
			folderID, err := deps.Store.CreateFolder(deps.InternalKey, payload.ProjectID, byPath[parentPath], name)
			if err != nil {
				return nil, fmt.Errorf("create folder %s: %w", folder.Path, err)
			}
			byPath[folder.Path] = folderID
		}
		return byPath, nil
	})
	if err != nil {
		return err
	}

	if err := workflow.Do(ctx, run, "create-files", func(ctx context.Context) error {
		for _, entry := range tree {
			if entry.Type != "blob" || entry.Path == "" || entry.SHA == "" {
				continue
			}
			if err := importBlob(ctx, deps, gh, payload, folderMap, entry); err != nil {
				run.Logger().Error("failed to import file", "path", entry.Path, "error", err)
			}
		}
		return nil
	}); err != nil {
		return err
	}

	return workflow.Do(ctx, run, "update-project-on-success", func(ctx context.Context) error {
		return deps.Store.UpdateImportStatus(deps.InternalKey, payload.ProjectID, store.ImportCompleted)
	})
}

func importBlob(ctx context.Context, deps Deps, gh githubx.Client, payload importPayload, folderMap map[string]string, entry githubx.TreeEntry) error {
	content, err := gh.BlobContent(ctx, payload.Owner, payload.Repo, entry.SHA)
	if err != nil {
		return err
	}
	name, parentPath := splitPath(entry.Path)
	parentID := folderMap[parentPath]

	if githubx.IsBinary(content) {
		storageID, err := deps.Store.PutBlob(deps.InternalKey, content)
		if err != nil {
			return err
		}
		_, err = deps.Store.CreateBinaryFile(deps.InternalKey, payload.ProjectID, parentID, name, storageID)
		return err
	}
	_, err = deps.Store.CreateFile(deps.InternalKey, payload.ProjectID, parentID, name, string(content))
	return err
}

func importRepoFailed(ctx context.Context, run *workflow.Run, deps Deps) {
	if strings.TrimSpace(deps.InternalKey) == "" {
		return
	}
	var payload importPayload
	if err := run.Payload(&payload); err != nil {
		return
	}
	if err := deps.Store.UpdateImportStatus(deps.InternalKey, payload.ProjectID, store.ImportFailed); err != nil {
		run.Logger().Error("failed to record import failure", "error", err)
	}
}

// splitPath splits "a/b/c" into name "c" and parent path "a/b".
func splitPath(path string) (name, parent string) {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return path, ""
	}
	return path[idx+1:], path[:idx]
}
