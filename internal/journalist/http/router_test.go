package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/pressfwd/sourcedesk/internal/journalist/designation"
	"github.com/pressfwd/sourcedesk/internal/journalist/service"
	"github.com/pressfwd/sourcedesk/internal/journalist/storage"
	"github.com/pressfwd/sourcedesk/internal/journalist/store/drivers/sqlite"
	"github.com/pressfwd/sourcedesk/internal/journalist/vault"
	"github.com/pressfwd/sourcedesk/internal/journalist/worker"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct horse battery staple"

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "journalist.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	v, err := vault.New(vault.Config{KeysDir: t.TempDir(), KeyBits: 1024})
	require.NoError(t, err)

	files, err := storage.New(t.TempDir())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pool := worker.NewPool(1, 8, time.Minute, logger)
	t.Cleanup(pool.Stop)

	sessions := NewSessions([]byte("test-secret"), "sourcedesk", time.Hour)
	router := NewRouter(sessions, "test", st, logger)
	router.AuthService = &service.AuthService{Store: st}
	router.AccountService = &service.AccountService{Store: st}
	router.CollectionService = &service.CollectionService{
		Store: st,
		Vault: v,
		Files: files,
		Tasks: pool,
		Namer: designation.NewGenerator(),
	}
	router.ReplyService = &service.ReplyService{Store: st, Vault: v, Files: files}
	router.ExportService = &service.ExportService{Store: st, Files: files}
	router.ApplyRoutes()

	return router
}

func doJSON(t *testing.T, router *Router, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createUser(t *testing.T, router *Router, username string, isAdmin bool) string {
	t.Helper()

	user, err := router.AccountService.CreateUser(t.Context(),
		username, testPassword, testPassword, isAdmin, "")
	require.NoError(t, err)
	return user.OTPSecret
}

func login(t *testing.T, router *Router, username, secret string) string {
	t.Helper()

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodPost, "/v1/session", "", map[string]string{
		"username": username,
		"password": testPassword,
		"token":    code,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionToken)
	return resp.SessionToken
}

func TestLoginAndListSources(t *testing.T) {
	router := newTestRouter(t)
	secret := createUser(t, router, "mallory", false)

	t.Run("bad credentials", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/session", "", map[string]string{
			"username": "mallory",
			"password": "wrong password!",
			"token":    "000000",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	token := login(t, router, "mallory", secret)

	t.Run("missing bearer token", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/sources", "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("empty index", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/sources", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var sources []sourceResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sources))
		require.Empty(t, sources)
	})

	t.Run("unknown collection", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/sources/ghost", token, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAdminGating(t *testing.T) {
	router := newTestRouter(t)
	adminSecret := createUser(t, router, "admin", true)
	userSecret := createUser(t, router, "mallory", false)

	adminToken := login(t, router, "admin", adminSecret)
	userToken := login(t, router, "mallory", userSecret)

	t.Run("regular journalist cannot manage accounts", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/users", userToken, nil)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin lists accounts", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/users", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var users []userResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
		require.Len(t, users, 2)
	})

	t.Run("admin creates an account", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/users", adminToken, map[string]any{
			"username":       "dellsberg",
			"password":       testPassword,
			"password_again": testPassword,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var created enrolledUserResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		require.NotEmpty(t, created.OTPSecret)
		require.Equal(t, "totp", created.OTPKind)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/users", adminToken, map[string]any{
			"username":       "dellsberg",
			"password":       testPassword,
			"password_again": testPassword,
		})
		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("self-service password change", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/me/password", userToken, map[string]string{
			"password":       "a different long passphrase",
			"password_again": "a different long passphrase",
		})
		require.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestReplyOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	secret := createUser(t, router, "mallory", false)
	token := login(t, router, "mallory", secret)

	src, err := router.CollectionService.CreateSource(t.Context())
	require.NoError(t, err)

	t.Run("blank reply rejected", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/sources/"+src.FilesystemID+"/replies", token,
			map[string]string{"message": "   "})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("reply dispatched", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/sources/"+src.FilesystemID+"/replies", token,
			map[string]string{"message": "meet me at the docks"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var reply replyResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
		require.Equal(t, "1-"+src.Slug+"-reply.gpg", reply.Filename)
	})

	t.Run("history", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/sources/"+src.FilesystemID+"/replies", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var replies []replyResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &replies))
		require.Len(t, replies, 1)
	})
}
