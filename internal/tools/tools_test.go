package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"codeforge/server/internal/db"
	"codeforge/server/internal/store"
)

const testKey = "test-internal-key"

type fakeScraper struct {
	pages map[string]string
}

func (f *fakeScraper) Scrape(_ context.Context, url string) (string, error) {
	content, ok := f.pages[url]
	if !ok {
		return "", errors.New("connection refused")
	}
	return content, nil
}

func newTestDeps(t *testing.T) Deps {
	t.Helper()
	gdb, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("open memory db: %v", err)
	}
	s := store.New(gdb, testKey)
	projectID, _, err := s.CreateProjectWithConversation(testKey, "demo", "user-1", store.DefaultConversationTitle)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return Deps{
		Store:       s,
		InternalKey: testKey,
		ProjectID:   projectID,
		Scraper:     &fakeScraper{pages: map[string]string{}},
	}
}

func run(t *testing.T, deps Deps, name, args string) string {
	t.Helper()
	registry, err := NewRegistry(deps)
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	tool, ok := registry.Get(name)
	if !ok {
		t.Fatalf("tool %q not registered", name)
	}
	return tool.Execute(context.Background(), json.RawMessage(args))
}

func TestListFilesSortsFoldersFirstThenByName(t *testing.T) {
	deps := newTestDeps(t)
	if _, err := deps.Store.CreateFile(testKey, deps.ProjectID, "", "zeta.txt", ""); err != nil {
		t.Fatalf("create file: %v", err)
	}
	if _, err := deps.Store.CreateFile(testKey, deps.ProjectID, "", "alpha.txt", ""); err != nil {
		t.Fatalf("create file: %v", err)
	}
	if _, err := deps.Store.CreateFolder(testKey, deps.ProjectID, "", "src"); err != nil {
		t.Fatalf("create folder: %v", err)
	}
	if _, err := deps.Store.CreateFolder(testKey, deps.ProjectID, "", "assets"); err != nil {
		t.Fatalf("create folder: %v", err)
	}

	out := run(t, deps, "list-files", `{}`)
	var listed []struct {
		Name     string `json:"name"`
		Type     string `json:"type"`
		ParentID any    `json:"parentId"`
	}
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("output must be JSON: %v (%s)", err, out)
	}
	var order []string
	for _, item := range listed {
		order = append(order, item.Name)
		if item.ParentID != nil {
			t.Fatalf("root items must have null parentId, got %v", item.ParentID)
		}
	}
	want := []string{"assets", "src", "alpha.txt", "zeta.txt"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Fatalf("order mismatch: got %v want %v", order, want)
	}
}

func TestReadFileReturnsContentAndRejectsFolder(t *testing.T) {
	deps := newTestDeps(t)
	fileID, err := deps.Store.CreateFile(testKey, deps.ProjectID, "", "main.go", "package main")
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	folderID, err := deps.Store.CreateFolder(testKey, deps.ProjectID, "", "src")
	if err != nil {
		t.Fatalf("create folder: %v", err)
	}

	out := run(t, deps, "read-file", fmt.Sprintf(`{"fileId":%q}`, fileID))
	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output must be JSON: %v (%s)", err, out)
	}
	if decoded["content"] != "package main" {
		t.Fatalf("content missing: %v", decoded)
	}

	out = run(t, deps, "read-file", fmt.Sprintf(`{"fileId":%q}`, folderID))
	if !strings.Contains(out, "is a folder") {
		t.Fatalf("folder must be rejected, got %q", out)
	}

	out = run(t, deps, "read-file", `{"fileId":"missing"}`)
	if !strings.Contains(out, "not found") {
		t.Fatalf("missing file must report not found, got %q", out)
	}
}

func TestUpdateFileRejectsFolderTargets(t *testing.T) {
	deps := newTestDeps(t)
	fileID, err := deps.Store.CreateFile(testKey, deps.ProjectID, "", "index.html", "old")
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	folderID, err := deps.Store.CreateFolder(testKey, deps.ProjectID, "", "src")
	if err != nil {
		t.Fatalf("create folder: %v", err)
	}

	out := run(t, deps, "update-file", fmt.Sprintf(`{"fileId":%q,"content":"new"}`, fileID))
	if !strings.Contains(out, "updated successfully") {
		t.Fatalf("update failed: %q", out)
	}
	file, err := deps.Store.GetFile(testKey, fileID)
	if err != nil {
		t.Fatalf("get file: %v", err)
	}
	if file.Content != "new" {
		t.Fatalf("content not written: %q", file.Content)
	}

	out = run(t, deps, "update-file", fmt.Sprintf(`{"fileId":%q,"content":"x"}`, folderID))
	if !strings.Contains(out, "is a folder, not a file") {
		t.Fatalf("folder must be rejected, got %q", out)
	}
}

func TestCreateFilesValidatesParentAndReportsPerFile(t *testing.T) {
	deps := newTestDeps(t)

	out := run(t, deps, "create-files", `{"parentId":"missing","files":[{"name":"a.txt","content":""}]}`)
	if !strings.Contains(out, "not found") || !strings.Contains(out, "folderIDs") {
		t.Fatalf("bad parent must point at listFiles, got %q", out)
	}

	fileID, err := deps.Store.CreateFile(testKey, deps.ProjectID, "", "notes.txt", "")
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	out = run(t, deps, "create-files", fmt.Sprintf(`{"parentId":%q,"files":[{"name":"a.txt","content":""}]}`, fileID))
	if !strings.Contains(out, "is not a folder") {
		t.Fatalf("file parent must be rejected, got %q", out)
	}

	// notes.txt already exists at root; the batch reports it as failed and
	// still creates the rest.
	out = run(t, deps, "create-files", `{"parentId":"","files":[{"name":"notes.txt","content":""},{"name":"app.js","content":"x"}]}`)
	if !strings.Contains(out, "Successfully created 1 file(s)") {
		t.Fatalf("expected one created, got %q", out)
	}
	if !strings.Contains(out, "app.js") || !strings.Contains(out, "notes.txt - (File already exists)") {
		t.Fatalf("per-file report missing: %q", out)
	}
}

func TestCreateFilesRejectsDuplicateWithinBatchPerItem(t *testing.T) {
	deps := newTestDeps(t)
	out := run(t, deps, "create-files", `{"parentId":"","files":[{"name":"a.txt","content":"1"},{"name":"a.txt","content":"2"},{"name":"b.txt","content":""}]}`)
	if !strings.Contains(out, "Successfully created 2 file(s)") {
		t.Fatalf("expected two created, got %q", out)
	}
	if !strings.Contains(out, "a.txt - (File already exists)") {
		t.Fatalf("second duplicate must fail against itself, got %q", out)
	}
}

func TestCreateFolderDuplicateAndEmptyName(t *testing.T) {
	deps := newTestDeps(t)
	out := run(t, deps, "create-folder", `{"name":"src","parentId":""}`)
	if !strings.HasPrefix(out, "Folder created with ID: ") {
		t.Fatalf("create failed: %q", out)
	}
	out = run(t, deps, "create-folder", `{"name":"src","parentId":""}`)
	if !strings.HasPrefix(out, "Error creating folder:") {
		t.Fatalf("duplicate must fail, got %q", out)
	}
	out = run(t, deps, "create-folder", `{"name":"  ","parentId":""}`)
	if out != "Error: Folder name is required" {
		t.Fatalf("empty name must fail, got %q", out)
	}
}

func TestDeleteFilesAbortsWholeBatchOnMissingID(t *testing.T) {
	deps := newTestDeps(t)
	fileID, err := deps.Store.CreateFile(testKey, deps.ProjectID, "", "keep.txt", "")
	if err != nil {
		t.Fatalf("create file: %v", err)
	}

	out := run(t, deps, "delete-files", fmt.Sprintf(`{"fileIds":[%q,"missing"]}`, fileID))
	if !strings.Contains(out, "missing not found") {
		t.Fatalf("missing id must abort, got %q", out)
	}
	if _, err := deps.Store.GetFile(testKey, fileID); err != nil {
		t.Fatal("no deletion may happen when any id is missing")
	}

	out = run(t, deps, "delete-files", fmt.Sprintf(`{"fileIds":[%q]}`, fileID))
	if !strings.Contains(out, "deleted successfully") {
		t.Fatalf("delete failed: %q", out)
	}
	if _, err := deps.Store.GetFile(testKey, fileID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("file must be gone, got %v", err)
	}
}

func TestDeleteFilesRemovesFolderRecursively(t *testing.T) {
	deps := newTestDeps(t)
	folderID, err := deps.Store.CreateFolder(testKey, deps.ProjectID, "", "src")
	if err != nil {
		t.Fatalf("create folder: %v", err)
	}
	childID, err := deps.Store.CreateFile(testKey, deps.ProjectID, folderID, "app.js", "")
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	out := run(t, deps, "delete-files", fmt.Sprintf(`{"fileIds":[%q]}`, folderID))
	if !strings.Contains(out, `File src "folder" deleted successfully.`) {
		t.Fatalf("unexpected report: %q", out)
	}
	if _, err := deps.Store.GetFile(testKey, childID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("child must be deleted with the folder, got %v", err)
	}
}

func TestRenameFileCollisionAndSuccess(t *testing.T) {
	deps := newTestDeps(t)
	fileID, err := deps.Store.CreateFile(testKey, deps.ProjectID, "", "a.txt", "")
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	if _, err := deps.Store.CreateFile(testKey, deps.ProjectID, "", "b.txt", ""); err != nil {
		t.Fatalf("create file: %v", err)
	}

	out := run(t, deps, "rename-file", fmt.Sprintf(`{"fileId":%q,"newName":"b.txt"}`, fileID))
	if !strings.HasPrefix(out, "Error renaming file:") {
		t.Fatalf("collision must fail, got %q", out)
	}

	out = run(t, deps, "rename-file", fmt.Sprintf(`{"fileId":%q,"newName":"c.txt"}`, fileID))
	if !strings.Contains(out, "renamed successfully") {
		t.Fatalf("rename failed: %q", out)
	}
	file, err := deps.Store.GetFile(testKey, fileID)
	if err != nil {
		t.Fatalf("get file: %v", err)
	}
	if file.Name != "c.txt" {
		t.Fatalf("name not updated: %q", file.Name)
	}
}

func TestScrapeURLsDegradesPerURL(t *testing.T) {
	deps := newTestDeps(t)
	deps.Scraper = &fakeScraper{pages: map[string]string{
		"https://docs.example.com/a": "# Page A",
	}}

	out := run(t, deps, "scrape-urls", `{"urls":["https://docs.example.com/a","https://docs.example.com/down"]}`)
	var pages []scrapedPage
	if err := json.Unmarshal([]byte(out), &pages); err != nil {
		t.Fatalf("output must be JSON: %v (%s)", err, out)
	}
	if len(pages) != 2 {
		t.Fatalf("expected result per URL, got %d", len(pages))
	}
	if pages[0].Content != "# Page A" {
		t.Fatalf("good URL content lost: %+v", pages[0])
	}
	if !strings.Contains(pages[1].Content, "Error: Failed to scrape") {
		t.Fatalf("bad URL must degrade inline, got %+v", pages[1])
	}
}

func TestScrapeURLsAllFailuresOrEmptyReturnSentinel(t *testing.T) {
	deps := newTestDeps(t)
	deps.Scraper = &fakeScraper{pages: map[string]string{
		"https://docs.example.com/empty": "   ",
	}}

	out := run(t, deps, "scrape-urls", `{"urls":["https://docs.example.com/empty"]}`)
	if out != "No content found from provided URLs" {
		t.Fatalf("expected sentinel, got %q", out)
	}

	out = run(t, deps, "scrape-urls", `{"urls":["not a url"]}`)
	if out != "Error: Invalid URL" {
		t.Fatalf("invalid URL must fail validation, got %q", out)
	}
}

func TestSchemaValidationErrorsBecomeText(t *testing.T) {
	deps := newTestDeps(t)

	out := run(t, deps, "update-file", `{"content":"x"}`)
	if !strings.HasPrefix(out, "Error:") || !strings.Contains(out, "fileId") {
		t.Fatalf("missing required field must surface as text, got %q", out)
	}

	out = run(t, deps, "delete-files", `{"fileIds":"not-an-array"}`)
	if !strings.HasPrefix(out, "Error:") {
		t.Fatalf("type mismatch must surface as text, got %q", out)
	}

	out = run(t, deps, "create-files", `{"parentId":"","files":[]}`)
	if out != "Error: Provide at least one file to create" {
		t.Fatalf("empty batch must fail, got %q", out)
	}
}
