package http

import (
	"bytes"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devconnector/internal/config"
	"devconnector/internal/repository"
)

// ============================================================================
// Test Server
// ============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:        "test-secret",
		TokenMaxAge:      3600,
		CORSOrigins:      []string{"http://localhost:3000"},
		GitHubAPIURL:     "http://127.0.0.1:1",
		DefaultAvatarURL: "//cdn.example.com/default.png",
	}
	store := repository.NewMemoryStore()
	srv := httptest.NewServer(newRouter(cfg, dependencies{
		users:    store.Users(),
		profiles: store.Profiles(),
		posts:    store.Posts(),
	}))
	t.Cleanup(srv.Close)
	return srv
}

// ============================================================================
// HTTP Client Helpers
// ============================================================================

type apiClient struct {
	t       *testing.T
	client  *stdhttp.Client
	baseURL string
	token   string
}

func newClient(t *testing.T, srv *httptest.Server) *apiClient {
	return &apiClient{t: t, client: srv.Client(), baseURL: srv.URL}
}

func (c *apiClient) withToken(token string) *apiClient {
	clone := *c
	clone.token = token
	return &clone
}

// do sends body as JSON and decodes the response into out when out is non-nil.
func (c *apiClient) do(method, path string, body, out interface{}) int {
	c.t.Helper()

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(c.t, err)
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := stdhttp.NewRequest(method, c.baseURL+path, bodyReader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("x-auth-token", c.token)
	}

	resp, err := c.client.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out), "%s %s", method, path)
	}
	return resp.StatusCode
}

type authResult struct {
	User struct {
		ID     int64  `json:"id"`
		Name   string `json:"name"`
		Avatar string `json:"avatar"`
	} `json:"user"`
	Token string `json:"token"`
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Fields  []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"fields"`
	} `json:"error"`
}

type postBody struct {
	ID    int64  `json:"id"`
	User  int64  `json:"user"`
	Text  string `json:"text"`
	Name  string `json:"name"`
	Likes []struct {
		User int64 `json:"user"`
	} `json:"likes"`
	Comments []commentBody `json:"comments"`
}

type commentBody struct {
	ID   string `json:"id"`
	User int64  `json:"user"`
	Text string `json:"text"`
}

func register(t *testing.T, c *apiClient, name string) (*apiClient, authResult) {
	t.Helper()
	var res authResult
	status := c.do("POST", "/users", map[string]string{
		"name":     name,
		"email":    name + "@example.com",
		"password": "secret123",
	}, &res)
	require.Equal(t, stdhttp.StatusCreated, status)
	require.NotEmpty(t, res.Token)
	return c.withToken(res.Token), res
}

// ============================================================================
// TEST CASES
// ============================================================================

func TestHealth(t *testing.T) {
	c := newClient(t, newTestServer(t))

	var body map[string]string
	assert.Equal(t, stdhttp.StatusOK, c.do("GET", "/health", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestAuthFlow(t *testing.T) {
	c := newClient(t, newTestServer(t))

	alice, reg := register(t, c, "alice")
	assert.Equal(t, "//cdn.example.com/default.png", reg.User.Avatar)

	var errResp errorBody
	status := c.do("POST", "/users", map[string]string{"name": "alice", "email": "alice@example.com", "password": "secret123"}, &errResp)
	assert.Equal(t, stdhttp.StatusConflict, status)
	assert.Equal(t, "User already exists", errResp.Error.Message)

	var login authResult
	assert.Equal(t, stdhttp.StatusOK, c.do("POST", "/auth", map[string]string{"email": "alice@example.com", "password": "secret123"}, &login))
	assert.Equal(t, reg.User.ID, login.User.ID)

	assert.Equal(t, stdhttp.StatusUnauthorized, c.do("POST", "/auth", map[string]string{"email": "alice@example.com", "password": "wrong-pass"}, nil))

	var me authResult
	assert.Equal(t, stdhttp.StatusOK, alice.do("GET", "/auth", nil, &me.User))
	assert.Equal(t, "alice", me.User.Name)

	assert.Equal(t, stdhttp.StatusUnauthorized, c.do("GET", "/auth", nil, nil))
}

func TestRegister_ValidationFields(t *testing.T) {
	c := newClient(t, newTestServer(t))

	var errResp errorBody
	status := c.do("POST", "/users", map[string]string{"email": "nope", "password": "1"}, &errResp)

	require.Equal(t, stdhttp.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errResp.Error.Code)
	var fields []string
	for _, f := range errResp.Error.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"name", "email", "password"}, fields)
}

// Create a post as A, like and unlike as B, comment as C, then A fails to
// delete C's comment.
func TestPostEngagementScenario(t *testing.T) {
	c := newClient(t, newTestServer(t))
	a, _ := register(t, c, "alice")
	b, _ := register(t, c, "bob")
	cc, carol := register(t, c, "carol")

	var post postBody
	require.Equal(t, stdhttp.StatusCreated, a.do("POST", "/posts", map[string]string{"text": "hello"}, &post))
	assert.Equal(t, "hello", post.Text)
	assert.Equal(t, "alice", post.Name)
	postPath := "/posts/" + itoa(post.ID)

	var likes []struct {
		User int64 `json:"user"`
	}
	require.Equal(t, stdhttp.StatusOK, b.do("PUT", "/posts/like/"+itoa(post.ID), nil, &likes))
	assert.Len(t, likes, 1)

	var errResp errorBody
	assert.Equal(t, stdhttp.StatusConflict, b.do("PUT", "/posts/like/"+itoa(post.ID), nil, &errResp))
	assert.Equal(t, "Post already liked", errResp.Error.Message)

	var stored postBody
	require.Equal(t, stdhttp.StatusOK, a.do("GET", postPath, nil, &stored))
	assert.Len(t, stored.Likes, 1)

	require.Equal(t, stdhttp.StatusOK, b.do("PUT", "/posts/unlike/"+itoa(post.ID), nil, &likes))
	assert.Len(t, likes, 0)
	assert.Equal(t, stdhttp.StatusConflict, b.do("PUT", "/posts/unlike/"+itoa(post.ID), nil, nil))

	var comments []commentBody
	require.Equal(t, stdhttp.StatusOK, cc.do("POST", "/posts/comment/"+itoa(post.ID), map[string]string{"text": "nice"}, &comments))
	require.Len(t, comments, 1)
	assert.Equal(t, carol.User.ID, comments[0].User)

	commentPath := "/posts/comment/" + itoa(post.ID) + "/" + comments[0].ID
	assert.Equal(t, stdhttp.StatusForbidden, a.do("DELETE", commentPath, nil, &errResp))
	assert.Equal(t, "User not authorized", errResp.Error.Message)

	require.Equal(t, stdhttp.StatusOK, a.do("GET", postPath, nil, &stored))
	require.Len(t, stored.Comments, 1)
	assert.Equal(t, "nice", stored.Comments[0].Text)

	require.Equal(t, stdhttp.StatusOK, cc.do("DELETE", commentPath, nil, &comments))
	assert.Len(t, comments, 0)
}

func TestPosts_ListAndDelete(t *testing.T) {
	c := newClient(t, newTestServer(t))
	a, _ := register(t, c, "alice")
	b, _ := register(t, c, "bob")

	var first, second postBody
	a.do("POST", "/posts", map[string]string{"text": "first"}, &first)
	b.do("POST", "/posts", map[string]string{"text": "second"}, &second)

	var posts []postBody
	require.Equal(t, stdhttp.StatusOK, a.do("GET", "/posts", nil, &posts))
	require.Len(t, posts, 2)
	assert.Equal(t, second.ID, posts[0].ID)
	assert.Equal(t, first.ID, posts[1].ID)

	assert.Equal(t, stdhttp.StatusForbidden, b.do("DELETE", "/posts/"+itoa(first.ID), nil, nil))

	var msg map[string]string
	assert.Equal(t, stdhttp.StatusOK, a.do("DELETE", "/posts/"+itoa(first.ID), nil, &msg))
	assert.Equal(t, "Post removed", msg["message"])
	assert.Equal(t, stdhttp.StatusNotFound, a.do("GET", "/posts/"+itoa(first.ID), nil, nil))

	assert.Equal(t, stdhttp.StatusUnauthorized, c.do("GET", "/posts", nil, nil))
	assert.Equal(t, stdhttp.StatusBadRequest, a.do("GET", "/posts/abc", nil, nil))
}

func TestProfileLifecycle(t *testing.T) {
	c := newClient(t, newTestServer(t))
	a, reg := register(t, c, "alice")

	assert.Equal(t, stdhttp.StatusNotFound, a.do("GET", "/profile/me", nil, nil))

	type profileBody struct {
		Status     string   `json:"status"`
		Skills     []string `json:"skills"`
		Experience []struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"experience"`
		User struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"user"`
	}

	var profile profileBody
	require.Equal(t, stdhttp.StatusOK, a.do("POST", "/profile", map[string]string{
		"status": "Developer",
		"skills": "go, sql , redis",
	}, &profile))
	assert.Equal(t, []string{"go", "sql", "redis"}, profile.Skills)
	assert.Equal(t, "alice", profile.User.Name)

	require.Equal(t, stdhttp.StatusOK, a.do("PUT", "/profile/experience", map[string]string{
		"title": "Engineer", "company": "Acme", "from": "2020-01-01",
	}, &profile))
	require.Len(t, profile.Experience, 1)

	var errResp errorBody
	require.Equal(t, stdhttp.StatusBadRequest, a.do("PUT", "/profile/education", map[string]string{"school": "MIT"}, &errResp))
	assert.Len(t, errResp.Error.Fields, 3)

	var public profileBody
	require.Equal(t, stdhttp.StatusOK, c.do("GET", "/profile/user/"+itoa(reg.User.ID), nil, &public))
	assert.Equal(t, "Developer", public.Status)

	var all []profileBody
	require.Equal(t, stdhttp.StatusOK, c.do("GET", "/profile", nil, &all))
	assert.Len(t, all, 1)

	require.Equal(t, stdhttp.StatusOK, a.do("DELETE", "/profile/experience/"+profile.Experience[0].ID, nil, &profile))
	assert.Empty(t, profile.Experience)

	var msg map[string]string
	require.Equal(t, stdhttp.StatusOK, a.do("DELETE", "/profile", nil, &msg))
	assert.Equal(t, "User deleted", msg["message"])
	assert.Equal(t, stdhttp.StatusNotFound, c.do("GET", "/profile/user/"+itoa(reg.User.ID), nil, nil))
	assert.Equal(t, stdhttp.StatusUnauthorized, c.do("POST", "/auth", map[string]string{"email": "alice@example.com", "password": "secret123"}, nil))
}

func TestDeleteAccount_NothingToDelete(t *testing.T) {
	c := newClient(t, newTestServer(t))
	a, _ := register(t, c, "alice")

	assert.Equal(t, stdhttp.StatusOK, a.do("DELETE", "/profile", nil, nil))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
