package githubx

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v66/github"
)

func newFakeAPIClient(t *testing.T, handler http.Handler) *RESTClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	gh := github.NewClient(srv.Client())
	base, err := url.Parse(srv.URL + "/")
	if err != nil {
		t.Fatalf("parse base url: %v", err)
	}
	gh.BaseURL = base
	return NewFromGithub(gh)
}

func TestRepoTreeFallsBackToMaster(t *testing.T) {
	client := newFakeAPIClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/octo/demo/git/trees/main":
			http.NotFound(w, r)
		case "/repos/octo/demo/git/trees/master":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"sha":"t1","tree":[
				{"path":"src","type":"tree","sha":"s1"},
				{"path":"src/app.js","type":"blob","sha":"b1"}
			]}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	entries, err := client.RepoTree(context.Background(), "octo", "demo")
	if err != nil {
		t.Fatalf("repo tree: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Type != "tree" || entries[1].Path != "src/app.js" {
		t.Fatalf("entries malformed: %+v", entries)
	}
}

func TestBlobContentDecodesBase64(t *testing.T) {
	raw := []byte("hello\nworld\n")
	encoded := base64.StdEncoding.EncodeToString(raw)
	client := newFakeAPIClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/octo/demo/git/blobs/b1" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sha":"b1","encoding":"base64","content":"` + encoded + `"}`))
	}))

	content, err := client.BlobContent(context.Background(), "octo", "demo", "b1")
	if err != nil {
		t.Fatalf("blob content: %v", err)
	}
	if !bytes.Equal(content, raw) {
		t.Fatalf("decoded content mismatch: %q", content)
	}
}

func TestIsBinary(t *testing.T) {
	if IsBinary([]byte("package main\n\nfunc main() {}\n")) {
		t.Fatal("plain text flagged as binary")
	}
	if !IsBinary([]byte{0x89, 'P', 'N', 'G', 0x00, 0x1a}) {
		t.Fatal("NUL byte not flagged as binary")
	}
	if !IsBinary([]byte{0xff, 0xfe, 0xfd}) {
		t.Fatal("invalid UTF-8 not flagged as binary")
	}
	if IsBinary(nil) {
		t.Fatal("empty data must not be binary")
	}
}
