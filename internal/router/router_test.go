package router

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/tinyapp/internal/auth"
	"github.com/patric-chuzhbe/tinyapp/internal/config"
	"github.com/patric-chuzhbe/tinyapp/internal/db/memorystorage"
	"github.com/patric-chuzhbe/tinyapp/internal/ipchecker"
	"github.com/patric-chuzhbe/tinyapp/internal/logger"
	"github.com/patric-chuzhbe/tinyapp/internal/mockstorage"
	"github.com/patric-chuzhbe/tinyapp/internal/models"
	"github.com/patric-chuzhbe/tinyapp/internal/service"
)

type initOption func(*initOptions)

type initOptions struct {
	mockStorage *mockstorage.StorageMock
	loginMatch  models.LoginMatch
}

func withMockStorage(mockStorage *mockstorage.StorageMock) initOption {
	return func(options *initOptions) {
		options.mockStorage = mockStorage
	}
}

func withLoginMatch(loginMatch models.LoginMatch) initOption {
	return func(options *initOptions) {
		options.loginMatch = loginMatch
	}
}

func setupTestRouter(t *testing.T, optionsProto ...initOption) *httptest.Server {
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	cfg, err := config.New(config.WithDisableFlagsParsing(true))
	require.NoError(t, err)

	var svc *service.Service
	var sessions *auth.Auth
	authKey, err := base64.URLEncoding.DecodeString(cfg.SessionSigningKey)
	require.NoError(t, err)

	if options.mockStorage != nil {
		svc, err = service.New(options.mockStorage, service.WithPasswordHashCost(bcrypt.MinCost))
		require.NoError(t, err)
		sessions = auth.New(options.mockStorage, cfg.SessionCookieName, authKey, cfg.SessionMaxAge, cfg.VisitorIDLength)
	} else {
		db, err := memorystorage.New()
		require.NoError(t, err)
		svc, err = service.New(db, service.WithPasswordHashCost(bcrypt.MinCost))
		require.NoError(t, err)
		sessions = auth.New(db, cfg.SessionCookieName, authKey, cfg.SessionMaxAge, cfg.VisitorIDLength)
	}

	guard, err := ipchecker.New("127.0.0.0/8")
	require.NoError(t, err)

	require.NoError(t, logger.Init("debug"))

	server := httptest.NewServer(New(svc, sessions, guard, options.loginMatch))
	t.Cleanup(server.Close)

	return server
}

// newClient returns a resty client with its own cookie jar that does not follow redirects.
func newClient(server *httptest.Server) *resty.Client {
	return resty.New().
		SetBaseURL(server.URL).
		SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}))
}

func register(t *testing.T, client *resty.Client, username, email, password string) models.UserResponse {
	t.Helper()
	var result models.UserResponse
	resp, err := client.R().
		SetBody(models.RegisterRequest{Username: username, Email: email, Password: password}).
		SetResult(&result).
		Post("/register")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode(), resp.String())

	return result
}

func createURL(t *testing.T, client *resty.Client, longURL string) models.CreateURLResponse {
	t.Helper()
	var result models.CreateURLResponse
	resp, err := client.R().
		SetBody(models.URLRequest{LongURL: longURL}).
		SetResult(&result).
		Post("/urls")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode(), resp.String())

	return result
}

func TestPostRegister(t *testing.T) {
	server := setupTestRouter(t)
	client := newClient(server)

	usr := register(t, client, "bob", "bob@x.com", "pw")
	assert.Len(t, usr.ID, service.DefaultUserIDLength)
	assert.Equal(t, "bob", usr.Username)
	assert.Equal(t, "bob@x.com", usr.Email)

	t.Run("already logged in", func(t *testing.T) {
		resp, err := client.R().
			SetBody(models.RegisterRequest{Username: "bob2", Email: "bob2@x.com", Password: "pw"}).
			Post("/register")
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.StatusCode())
	})

	testCases := []struct {
		name         string
		body         interface{}
		expectedCode int
	}{
		{"taken username", models.RegisterRequest{Username: "bob", Email: "other@x.com", Password: "pw"}, http.StatusConflict},
		{"taken email", models.RegisterRequest{Username: "other", Email: "bob@x.com", Password: "pw"}, http.StatusConflict},
		{"incomplete", models.RegisterRequest{Username: "alice", Email: "", Password: "pw"}, http.StatusBadRequest},
		{"not JSON", "{", http.StatusBadRequest},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			resp, err := newClient(server).R().
				SetHeader("Content-Type", "application/json").
				SetBody(testCase.body).
				Post("/register")
			require.NoError(t, err)
			assert.Equal(t, testCase.expectedCode, resp.StatusCode(), resp.String())
		})
	}
}

func TestPostLoginAndLogout(t *testing.T) {
	server := setupTestRouter(t)
	register(t, newClient(server), "bob", "bob@x.com", "pw")

	testCases := []struct {
		name         string
		request      models.LoginRequest
		expectedCode int
	}{
		{"by username", models.LoginRequest{Login: "bob", Password: "pw"}, http.StatusOK},
		{"by email", models.LoginRequest{Login: "bob@x.com", Password: "pw"}, http.StatusOK},
		{"wrong password", models.LoginRequest{Login: "bob", Password: "nope"}, http.StatusUnauthorized},
		{"unknown login", models.LoginRequest{Login: "carol", Password: "pw"}, http.StatusUnauthorized},
		{"empty password", models.LoginRequest{Login: "bob"}, http.StatusBadRequest},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var errorResponse models.ErrorResponse
			resp, err := newClient(server).R().
				SetBody(testCase.request).
				SetError(&errorResponse).
				Post("/login")
			require.NoError(t, err)
			assert.Equal(t, testCase.expectedCode, resp.StatusCode())
			if testCase.expectedCode == http.StatusUnauthorized {
				assert.Equal(t, service.ErrInvalidCredentials.Error(), errorResponse.Error)
			}
		})
	}

	t.Run("logout ends access", func(t *testing.T) {
		client := newClient(server)
		resp, err := client.R().SetBody(models.LoginRequest{Login: "bob", Password: "pw"}).Post("/login")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode())

		resp, err = client.R().Get("/urls")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())

		resp, err = client.R().Post("/logout")
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode())

		resp, err = client.R().Get("/urls")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())
	})
}

func TestPostLoginWithEmailPolicy(t *testing.T) {
	server := setupTestRouter(t, withLoginMatch(models.LoginMatchEmail))
	register(t, newClient(server), "bob", "bob@x.com", "pw")

	resp, err := newClient(server).R().SetBody(models.LoginRequest{Login: "bob", Password: "pw"}).Post("/login")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())

	resp, err = newClient(server).R().SetBody(models.LoginRequest{Login: "bob@x.com", Password: "pw"}).Post("/login")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
}

func TestUrlsLifecycle(t *testing.T) {
	server := setupTestRouter(t)
	bob := newClient(server)
	alice := newClient(server)
	anonymous := newClient(server)
	register(t, bob, "bob", "bob@x.com", "pw")
	register(t, alice, "alice", "alice@x.com", "pw")

	created := createURL(t, bob, "example.com")
	assert.Equal(t, "http://example.com", created.LongURL)
	assert.Len(t, created.ShortKey, service.DefaultShortKeyLength)
	second := createURL(t, bob, "https://golang.org")

	t.Run("list in creation order", func(t *testing.T) {
		var list []models.URLListItem
		resp, err := bob.R().SetResult(&list).Get("/urls")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode())
		require.Len(t, list, 2)
		assert.Equal(t, created.ShortKey, list[0].ShortKey)
		assert.Equal(t, second.ShortKey, list[1].ShortKey)
		assert.Nil(t, list[0].LastModifiedAt)

		resp, err = alice.R().SetResult(&list).Get("/urls")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
		assert.Empty(t, list)
	})

	t.Run("create rejects", func(t *testing.T) {
		resp, err := anonymous.R().SetBody(models.URLRequest{LongURL: "example.com"}).Post("/urls")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())

		resp, err = bob.R().SetBody(models.URLRequest{LongURL: "http://a b.ca"}).Post("/urls")
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode())

		resp, err = bob.R().SetBody(models.URLRequest{}).Post("/urls")
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
	})

	t.Run("details access", func(t *testing.T) {
		resp, err := anonymous.R().Get("/urls/nokey1")
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode())

		resp, err = anonymous.R().Get("/urls/" + created.ShortKey)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())

		resp, err = alice.R().Get("/urls/" + created.ShortKey)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode())
	})

	t.Run("update", func(t *testing.T) {
		resp, err := alice.R().SetBody(models.URLRequest{LongURL: "evil.com"}).Put("/urls/" + created.ShortKey)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode())

		resp, err = bob.R().SetBody(models.URLRequest{LongURL: "evil.com"}).Put("/urls/nokey1")
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode())

		resp, err = bob.R().SetBody(models.URLRequest{LongURL: "http://"}).Put("/urls/" + created.ShortKey)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode())

		var result models.UpdateURLResponse
		resp, err = bob.R().SetBody(models.URLRequest{LongURL: "example.com"}).SetResult(&result).Put("/urls/" + created.ShortKey)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
		assert.False(t, result.Updated, "The same normalized URL is not an update")

		resp, err = bob.R().SetBody(models.URLRequest{LongURL: "example.org"}).SetResult(&result).Put("/urls/" + created.ShortKey)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
		assert.True(t, result.Updated)

		var details models.URLDetailsResponse
		resp, err = bob.R().SetResult(&details).Get("/urls/" + created.ShortKey)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
		assert.Equal(t, "http://example.org", details.LongURL)
		assert.NotNil(t, details.LastModifiedAt)
	})

	t.Run("delete", func(t *testing.T) {
		resp, err := alice.R().Delete("/urls/" + second.ShortKey)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode())

		resp, err = anonymous.R().Delete("/urls/" + second.ShortKey)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())

		resp, err = bob.R().Delete("/urls/" + second.ShortKey)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode())

		resp, err = bob.R().Get("/urls/" + second.ShortKey)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode())
	})
}

func TestGetUShortkey(t *testing.T) {
	server := setupTestRouter(t)
	bob := newClient(server)
	register(t, bob, "bob", "bob@x.com", "pw")
	created := createURL(t, bob, "https://example.com/page")

	resp, err := newClient(server).R().Get("/u/nokey1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())

	visitor := newClient(server)
	for i := 0; i < 3; i++ {
		resp, err := visitor.R().Get("/u/" + created.ShortKey)
		require.NoError(t, err)
		assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode())
		assert.Equal(t, "https://example.com/page", resp.Header().Get("Location"))
	}
	resp, err = bob.R().Get("/u/" + created.ShortKey)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode())

	var details models.URLDetailsResponse
	resp, err = bob.R().SetResult(&details).Get("/urls/" + created.ShortKey)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, models.VisitStats{Total: 4, Unique: 2}, details.Visits)
	require.Len(t, details.VisitLog, 4)
	assert.Equal(t, details.VisitLog[0].VisitorID, details.VisitLog[2].VisitorID)
	assert.NotEqual(t, details.VisitLog[0].VisitorID, details.VisitLog[3].VisitorID)
}

func TestGetPing(t *testing.T) {
	server := setupTestRouter(t)

	resp, err := newClient(server).R().Get("/ping")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.NotEmpty(t, resp.Header().Get(logger.RequestIDHeader))
}

func TestGetPingStorageFailure(t *testing.T) {
	mockStorage := &mockstorage.StorageMock{}
	mockStorage.On("Ping", mock.Anything).Return(assert.AnError)
	server := setupTestRouter(t, withMockStorage(mockStorage))

	resp, err := newClient(server).R().Get("/ping")
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode())
	mockStorage.AssertExpectations(t)
}

func TestGetApiinternalstats(t *testing.T) {
	server := setupTestRouter(t)
	bob := newClient(server)
	register(t, bob, "bob", "bob@x.com", "pw")
	createURL(t, bob, "example.com")
	createURL(t, bob, "example.org")

	var stats models.InternalStatsResponse
	resp, err := newClient(server).R().SetResult(&stats).Get("/api/internal/stats")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, models.InternalStatsResponse{URLs: 2, Users: 1}, stats)

	resp, err = newClient(server).R().SetHeader("X-Real-IP", "192.168.1.1").Get("/api/internal/stats")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode())
}
