package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Test configuration
const (
	MaxWaitDuration = 60 * time.Second
	PollInterval    = 2 * time.Second
)

var (
	postBaseURL   = envOr("POST_SERVICE_URL", "http://localhost:3002")
	searchBaseURL = envOr("SEARCH_SERVICE_URL", "http://localhost:3003")
	testUserID    = envOr("TEST_USER_ID", "e2e-user")
)

// Post represents the post response from the API
type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// PostList is the paginated list response
type PostList struct {
	Posts      []Post `json:"posts"`
	Total      int64  `json:"total"`
	Page       int    `json:"page"`
	TotalPages int64  `json:"totalPages"`
}

// SearchResult is one hit from the search endpoint
type SearchResult struct {
	PostID  string `json:"postId"`
	Content string `json:"content"`
}

// SearchResponse is the search endpoint body
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// TestResult tracks the result of each test
type TestResult struct {
	Name     string
	Passed   bool
	Error    error
	Duration time.Duration
}

func main() {
	fmt.Println("=== Social Media Services E2E System Test ===")

	ctx := context.Background()
	results := []TestResult{}

	// Test 1: service health checks
	results = append(results, runTest("Post Service Health Check", func() error {
		return testHealthCheck(ctx, postBaseURL)
	}))
	results = append(results, runTest("Search Service Health Check", func() error {
		return testHealthCheck(ctx, searchBaseURL)
	}))

	// Test 2: unauthenticated requests are rejected
	results = append(results, runTest("Unauthenticated Request Rejected", func() error {
		return testRequiresAuth(ctx)
	}))

	// Test 3: create a post
	marker := fmt.Sprintf("e2etoken%d", time.Now().UnixNano())
	var created Post
	results = append(results, runTest("Create Post", func() error {
		var err error
		created, err = testCreatePost(ctx, "smoke test post "+marker)
		return err
	}))

	if created.ID != "" {
		// Test 4: read it back directly and via the list
		results = append(results, runTest("Get Post By ID", func() error {
			return testGetPost(ctx, created.ID)
		}))
		results = append(results, runTest("List Posts Contains New Post", func() error {
			return testListContains(ctx, created.ID)
		}))

		// Test 5: the search projection converges on the new post
		results = append(results, runTest("Search Finds New Post", func() error {
			return waitForSearchHit(ctx, marker, created.ID)
		}))

		// Test 6: delete removes it from both services
		results = append(results, runTest("Delete Post", func() error {
			return testDeletePost(ctx, created.ID)
		}))
		results = append(results, runTest("Search Drops Deleted Post", func() error {
			return waitForSearchMiss(ctx, marker)
		}))
	}

	// Test 7: the global budget eventually rejects a burst
	results = append(results, runTest("Rate Limit Rejects Burst", func() error {
		return testRateLimitBurst(ctx)
	}))

	// Print results
	fmt.Println("\n=== Test Results ===")
	passed := 0
	failed := 0
	for _, result := range results {
		status := "✅ PASS"
		if !result.Passed {
			status = "❌ FAIL"
			failed++
		} else {
			passed++
		}
		fmt.Printf("%s %s (%.2fs)\n", status, result.Name, result.Duration.Seconds())
		if result.Error != nil {
			fmt.Printf("   Error: %v\n", result.Error)
		}
	}

	fmt.Printf("\n=== Summary ===\n")
	fmt.Printf("Total: %d | Passed: %d | Failed: %d\n", len(results), passed, failed)

	if failed > 0 {
		os.Exit(1)
	}
}

func runTest(name string, testFunc func() error) TestResult {
	fmt.Printf("Running: %s...\n", name)
	start := time.Now()
	err := testFunc()
	duration := time.Since(start)

	result := TestResult{
		Name:     name,
		Passed:   err == nil,
		Error:    err,
		Duration: duration,
	}

	if err != nil {
		fmt.Printf("  ❌ Failed: %v\n", err)
	} else {
		fmt.Printf("  ✅ Passed\n")
	}

	return result
}

func testHealthCheck(ctx context.Context, baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("expected status 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("  Health response: %s\n", string(body))
	return nil
}

func testRequiresAuth(ctx context.Context) error {
	resp, err := http.Get(postBaseURL + "/api/v1/posts")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		return fmt.Errorf("expected status 401 without x-user-id, got %d", resp.StatusCode)
	}
	return nil
}

func testCreatePost(ctx context.Context, content string) (Post, error) {
	body, _ := json.Marshal(map[string]any{"content": content})

	resp, err := doAuthed(ctx, http.MethodPost, postBaseURL+"/api/v1/posts", body)
	if err != nil {
		return Post{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		return Post{}, fmt.Errorf("expected status 201, got %d: %s", resp.StatusCode, raw)
	}

	var post Post
	if err := json.NewDecoder(resp.Body).Decode(&post); err != nil {
		return Post{}, fmt.Errorf("failed to decode create response: %w", err)
	}
	if post.ID == "" {
		return Post{}, fmt.Errorf("created post has no id")
	}

	fmt.Printf("  Created post %s\n", post.ID)
	return post, nil
}

func testGetPost(ctx context.Context, id string) error {
	resp, err := doAuthed(ctx, http.MethodGet, postBaseURL+"/api/v1/posts/"+id, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("expected status 200, got %d", resp.StatusCode)
	}

	var post Post
	if err := json.NewDecoder(resp.Body).Decode(&post); err != nil {
		return fmt.Errorf("failed to decode post: %w", err)
	}
	if post.ID != id {
		return fmt.Errorf("expected post %s, got %s", id, post.ID)
	}
	return nil
}

func testListContains(ctx context.Context, id string) error {
	resp, err := doAuthed(ctx, http.MethodGet, postBaseURL+"/api/v1/posts?page=1&limit=20", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("expected status 200, got %d", resp.StatusCode)
	}

	var list PostList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return fmt.Errorf("failed to decode post list: %w", err)
	}
	for _, p := range list.Posts {
		if p.ID == id {
			fmt.Printf("  Found post in page 1 of %d total\n", list.Total)
			return nil
		}
	}
	return fmt.Errorf("post %s not present in first page", id)
}

// waitForSearchHit polls until the search projection has indexed the
// post. Propagation is asynchronous over the event bus so this is
// eventually consistent, not immediate.
func waitForSearchHit(ctx context.Context, query, wantID string) error {
	fmt.Printf("  Waiting for search projection (max %v)...\n", MaxWaitDuration)

	deadline := time.Now().Add(MaxWaitDuration)
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		results, err := searchPosts(ctx, query)
		if err == nil {
			for _, r := range results {
				if r.PostID == wantID {
					fmt.Printf("  Post indexed and searchable\n")
					return nil
				}
			}
		}

		<-ticker.C
	}

	return fmt.Errorf("timeout: post %s never appeared in search results", wantID)
}

func waitForSearchMiss(ctx context.Context, query string) error {
	deadline := time.Now().Add(MaxWaitDuration)
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		results, err := searchPosts(ctx, query)
		if err == nil && len(results) == 0 {
			return nil
		}

		<-ticker.C
	}

	return fmt.Errorf("timeout: deleted post still returned by search")
}

func testDeletePost(ctx context.Context, id string) error {
	resp, err := doAuthed(ctx, http.MethodDelete, postBaseURL+"/api/v1/posts/"+id, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	return nil
}

// testRateLimitBurst hammers the list endpoint with a dedicated identity
// until the global tier pushes back
func testRateLimitBurst(ctx context.Context) error {
	identity := fmt.Sprintf("e2e-burst-%d", time.Now().UnixNano())

	for i := 0; i < 30; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, postBaseURL+"/api/v1/posts", nil)
		if err != nil {
			return err
		}
		req.Header.Set("x-user-id", identity)

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			if resp.Header.Get("Retry-After") == "" {
				return fmt.Errorf("429 response missing Retry-After header")
			}
			fmt.Printf("  Rejected after %d requests\n", i+1)
			return nil
		}
	}

	return fmt.Errorf("30 rapid requests were all admitted")
}

func searchPosts(ctx context.Context, query string) ([]SearchResult, error) {
	resp, err := doAuthed(ctx, http.MethodGet, searchBaseURL+"/api/v1/search/posts?query="+query, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("expected status 200, got %d", resp.StatusCode)
	}

	var body SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return body.Results, nil
}

func doAuthed(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-user-id", testUserID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
