package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/updoot-app/backend/internal/middleware"
	"github.com/updoot-app/backend/internal/models"
	"github.com/updoot-app/backend/internal/session"
)

// memSessions is an in-memory stand-in for the Redis session store.
type memSessions struct {
	mu     sync.Mutex
	tokens map[string]int
	resets map[string]int
}

func newMemSessions() *memSessions {
	return &memSessions{tokens: map[string]int{}, resets: map[string]int{}}
}

func (m *memSessions) Create(ctx context.Context, userID int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := uuid.NewString()
	m.tokens[token] = userID
	return token, nil
}

func (m *memSessions) UserID(ctx context.Context, token string) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.tokens[token]
	return id, ok, nil
}

func (m *memSessions) Destroy(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
	return nil
}

func (m *memSessions) CreateResetToken(ctx context.Context, userID int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := uuid.NewString()
	m.resets[token] = userID
	return token, nil
}

func (m *memSessions) UserIDForResetToken(ctx context.Context, token string) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.resets[token]
	return id, ok, nil
}

func (m *memSessions) DeleteResetToken(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.resets, token)
	return nil
}

var _ session.Store = (*memSessions)(nil)

type testEnv struct {
	router   *gin.Engine
	db       *gorm.DB
	sessions *memSessions
	handler  *Handler
}

// newTestEnv wires the real middleware and routes over sqlite and the
// in-memory session store, mirroring the production router.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}, &models.Vote{}))

	sessions := newMemSessions()
	handler := NewHandler(db, sessions)

	r := gin.New()
	r.Use(middleware.Sessions(sessions))
	r.Use(middleware.Loaders(handler.Stores.Users, handler.Stores.Votes))

	api := r.Group("/api")
	api.POST("/register", handler.Auth.Register)
	api.POST("/login", handler.Auth.Login)
	api.POST("/logout", handler.Auth.Logout)
	api.POST("/forgot-password", handler.Auth.ForgotPassword)
	api.POST("/change-password", handler.Auth.ChangePassword)
	api.GET("/posts", handler.Post.GetPosts)
	api.GET("/posts/:id", handler.Post.GetPost)

	protected := api.Group("", middleware.RequireAuth())
	protected.GET("/me", handler.Auth.GetMe)
	protected.POST("/posts", handler.Post.CreatePost)
	protected.PUT("/posts/:id", handler.Post.UpdatePost)
	protected.DELETE("/posts/:id", handler.Post.DeletePost)
	protected.POST("/posts/:id/vote", handler.Post.VotePost)

	return &testEnv{router: r, db: db, sessions: sessions, handler: handler}
}

func (e *testEnv) do(t *testing.T, method, path, cookie string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: cookie})
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// registerUser signs a user up through the API and returns their id and
// session token.
func (e *testEnv) registerUser(t *testing.T, username string) (int, string) {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/register", "", models.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "hunter2",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp models.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.User)

	token := sessionCookie(t, w)
	return resp.User.ID, token
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			return c.Value
		}
	}
	t.Fatal("no session cookie set")
	return ""
}

func (e *testEnv) createPost(t *testing.T, cookie, title string) int {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/posts", cookie, models.CreatePostRequest{
		Title: title,
		Text:  "body of " + title,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var post models.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
	return post.ID
}

func (e *testEnv) postPoints(t *testing.T, postID int) int {
	t.Helper()

	var post models.Post
	require.NoError(t, e.db.First(&post, postID).Error)
	return post.Points
}

func votePath(postID int) string {
	return fmt.Sprintf("/api/posts/%d/vote", postID)
}

func postPath(postID int) string {
	return fmt.Sprintf("/api/posts/%d", postID)
}
