package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"time"
)

const (
	tokenURL = "https://auth.atlassian.com/oauth/token"
	apiBase  = "https://api.atlassian.com"
)

// refreshSkew refreshes tokens slightly before expiry so an export that
// starts near the boundary does not fail mid-flight.
const refreshSkew = 60 * time.Second

// Tokens is an OAuth token pair with its absolute expiry.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Expired reports whether the access token needs refreshing.
func (t Tokens) Expired(now time.Time) bool {
	return !now.Add(refreshSkew).Before(t.ExpiresAt)
}

// Site is an accessible Jira cloud site.
type Site struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Project is a Jira project summary.
type Project struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// IssueType is a creatable issue type within a project.
type IssueType struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subtask bool   `json:"subtask"`
}

// IssueRef identifies a created issue.
type IssueRef struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

// Client talks to the Jira cloud REST API over three-legged OAuth.
type Client struct {
	httpClient   *http.Client
	clientID     string
	clientSecret string
	baseURL      string
	authURL      string
}

func NewClient(clientID, clientSecret string) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      apiBase,
		authURL:      tokenURL,
	}
}

type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("jira: api status %d: %s", e.Status, e.Body)
}

// Refresh exchanges a refresh token for a fresh token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	payload, _ := json.Marshal(map[string]string{
		"grant_type":    "refresh_token",
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
		"refresh_token": refreshToken,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, bytes.NewReader(payload))
	if err != nil {
		return Tokens{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Tokens{}, fmt.Errorf("jira: refresh token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Tokens{}, &apiError{Status: resp.StatusCode, Body: string(body)}
	}

	var out struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Tokens{}, fmt.Errorf("jira: decode token response: %w", err)
	}
	t := Tokens{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(out.ExpiresIn) * time.Second),
	}
	if t.RefreshToken == "" {
		t.RefreshToken = refreshToken
	}
	return t, nil
}

// ListSites returns the Jira cloud sites the token can access.
func (c *Client) ListSites(ctx context.Context, accessToken string) ([]Site, error) {
	var sites []Site
	err := c.get(ctx, accessToken, c.baseURL+"/oauth/token/accessible-resources", &sites)
	return sites, err
}

// ListProjects returns projects on a site, most recent first.
func (c *Client) ListProjects(ctx context.Context, accessToken, cloudID string) ([]Project, error) {
	var out struct {
		Values []Project `json:"values"`
	}
	url := fmt.Sprintf("%s/ex/jira/%s/rest/api/3/project/search?orderBy=-lastIssueUpdatedTime", c.baseURL, cloudID)
	if err := c.get(ctx, accessToken, url, &out); err != nil {
		return nil, err
	}
	return out.Values, nil
}

// ListIssueTypes returns the non-subtask issue types creatable in a project.
func (c *Client) ListIssueTypes(ctx context.Context, accessToken, cloudID, projectID string) ([]IssueType, error) {
	var out struct {
		IssueTypes []IssueType `json:"issueTypes"`
	}
	url := fmt.Sprintf("%s/ex/jira/%s/rest/api/3/issue/createmeta/%s/issuetypes", c.baseURL, cloudID, projectID)
	if err := c.get(ctx, accessToken, url, &out); err != nil {
		return nil, err
	}
	types := out.IssueTypes[:0]
	for _, it := range out.IssueTypes {
		if !it.Subtask {
			types = append(types, it)
		}
	}
	return types, nil
}

// CreateIssue creates an issue from ticket content and uploads any
// images extracted from it as attachments. Attachment failures do not
// fail the export; the issue already exists and the placeholders in the
// description say what is missing.
func (c *Client) CreateIssue(ctx context.Context, accessToken, cloudID, projectID, issueTypeID, title, content string) (IssueRef, error) {
	description, attachments := BuildDescription(content)

	payload := map[string]any{
		"fields": map[string]any{
			"project":     map[string]string{"id": projectID},
			"issuetype":   map[string]string{"id": issueTypeID},
			"summary":     title,
			"description": description,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return IssueRef{}, err
	}

	url := fmt.Sprintf("%s/ex/jira/%s/rest/api/3/issue", c.baseURL, cloudID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return IssueRef{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return IssueRef{}, fmt.Errorf("jira: create issue: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return IssueRef{}, &apiError{Status: resp.StatusCode, Body: string(b)}
	}

	var ref IssueRef
	if err := json.NewDecoder(resp.Body).Decode(&ref); err != nil {
		return IssueRef{}, fmt.Errorf("jira: decode issue response: %w", err)
	}

	// The issue exists from here on; a failed upload must not fail the
	// export or skip the remaining attachments.
	for _, att := range attachments {
		if err := c.uploadAttachment(ctx, accessToken, cloudID, ref.Key, att); err != nil {
			log.Printf("jira: issue %s: attachment %s failed: %v", ref.Key, att.Filename, err)
		}
	}
	return ref, nil
}

func (c *Client) uploadAttachment(ctx context.Context, accessToken, cloudID, issueKey string, att Attachment) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", att.Filename)
	if err != nil {
		return err
	}
	if _, err := part.Write(att.Data); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	url := fmt.Sprintf("%s/ex/jira/%s/rest/api/3/issue/%s/attachments", c.baseURL, cloudID, issueKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("X-Atlassian-Token", "no-check")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &apiError{Status: resp.StatusCode, Body: string(b)}
	}
	return nil
}

func (c *Client) get(ctx context.Context, accessToken, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("jira: request %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &apiError{Status: resp.StatusCode, Body: string(b)}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
