package jira

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func newTestClient(srv *httptest.Server) *Client {
	c := NewClient("id", "secret")
	c.httpClient = srv.Client()
	c.baseURL = srv.URL
	c.authURL = srv.URL + "/oauth/token"
	return c
}

func TestCreateIssueAttachmentFailureIsNonFatal(t *testing.T) {
	var mu sync.Mutex
	uploads := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/rest/api/3/issue"):
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"10001","key":"TK-1"}`))
		case strings.HasSuffix(r.URL.Path, "/rest/api/3/issue/TK-1/attachments"):
			mu.Lock()
			uploads++
			n := uploads
			mu.Unlock()
			if n == 1 {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte(`[]`))
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	content := "intro\n![First](" + dataURI("one") + ")\n![Second](" + dataURI("two") + ")"
	ref, err := newTestClient(srv).CreateIssue(context.Background(), "tok", "cloud-1", "p1", "it1", "Title", content)
	if err != nil {
		t.Fatalf("a failed attachment must not fail the export: %v", err)
	}
	if ref.Key != "TK-1" {
		t.Fatalf("ref = %+v", ref)
	}
	mu.Lock()
	defer mu.Unlock()
	if uploads != 2 {
		t.Fatalf("uploads attempted = %d, want 2 (failure must not skip the rest)", uploads)
	}
}

func TestCreateIssueErrorBeforeCreation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).CreateIssue(context.Background(), "tok", "cloud-1", "p1", "it1", "Title", "body")
	if err == nil {
		t.Fatal("create failure must surface")
	}
}
