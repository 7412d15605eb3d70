package security

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/takdim/inven-go/internal/web"
	"github.com/takdim/inven-go/pkg/auditlog"
	custom_error "github.com/takdim/inven-go/pkg/errors"
	"github.com/takdim/inven-go/pkg/models"
	"github.com/takdim/inven-go/pkg/roles"
)

type fakeRevoker struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func newFakeRevoker() *fakeRevoker {
	return &fakeRevoker{revoked: map[string]bool{}}
}

func (f *fakeRevoker) Revoke(_ context.Context, id string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[id] = true
	return nil
}

func (f *fakeRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revoked[id], nil
}

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserStore) Get(ctx context.Context, id int) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserStore) TouchLastLogin(ctx context.Context, id int, at time.Time) error {
	args := m.Called(id, at)
	return args.Error(0)
}

type nopStore struct{}

func (nopStore) PersistLog(context.Context, models.AuditLog, interface{}) error { return nil }

func newUser(t *testing.T, password string, active bool) *models.User {
	hash, err := HashPassword(password)
	require.NoError(t, err)
	return &models.User{ID: 4, Username: "rina", FullName: "Rina", PasswordHash: hash, Role: roles.Staff, IsActive: active}
}

func TestSessionRoundTrip(t *testing.T) {
	revoker := newFakeRevoker()
	sessions := NewSessionManager([]byte("secret"), time.Hour, false, revoker)

	token, issued, err := sessions.Issue(&models.User{ID: 9, Username: "admin", Role: roles.Admin})
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)

	claims, err := sessions.Parse(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, 9, claims.UserID)
	assert.Equal(t, "admin", claims.Role)

	require.NoError(t, sessions.Revoke(context.Background(), claims))
	_, err = sessions.Parse(context.Background(), token)
	assert.ErrorIs(t, err, ErrSessionRevoked)
}

func TestSessionRejectsTamperingAndExpiry(t *testing.T) {
	sessions := NewSessionManager([]byte("secret"), time.Hour, false, newFakeRevoker())
	token, _, err := sessions.Issue(&models.User{ID: 1, Username: "a", Role: roles.Viewer})
	require.NoError(t, err)

	other := NewSessionManager([]byte("other-secret"), time.Hour, false, newFakeRevoker())
	_, err = other.Parse(context.Background(), token)
	assert.Error(t, err)

	sessions.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = sessions.Parse(context.Background(), token)
	assert.Error(t, err)
}

func TestAuthenticateUser(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		setupMock func(m *MockUserStore)
		password  string
		wantErr   error
	}{
		{
			name: "valid credentials",
			setupMock: func(m *MockUserStore) {
				m.On("GetByUsername", "rina").Return(newUser(t, "secret1", true), nil)
			},
			password: "secret1",
		},
		{
			name: "wrong password",
			setupMock: func(m *MockUserStore) {
				m.On("GetByUsername", "rina").Return(newUser(t, "secret1", true), nil)
			},
			password: "nope",
			wantErr:  ErrInvalidCredentials,
		},
		{
			name: "unknown user",
			setupMock: func(m *MockUserStore) {
				m.On("GetByUsername", "rina").Return(nil, custom_error.ErrNotFound)
			},
			password: "secret1",
			wantErr:  ErrInvalidCredentials,
		},
		{
			name: "inactive user",
			setupMock: func(m *MockUserStore) {
				m.On("GetByUsername", "rina").Return(newUser(t, "secret1", false), nil)
			},
			password: "secret1",
			wantErr:  ErrInactiveUser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockUserStore)
			tt.setupMock(store)

			user, err := AuthenticateUser(ctx, store, "rina", tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "rina", user.Username)
		})
	}
}

func setupRouter(sessions *SessionManager, store *MockUserStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.SetHTMLTemplate(web.MustTemplates())

	handler := NewLoginHandler(store, sessions, auditlog.NewAuditLog(nopStore{}, zap.NewNop()), zap.NewNop())
	handler.RegisterRoutes(router)

	protected := router.Group("")
	protected.Use(sessions.RequireSession(store))
	handler.RegisterSessionRoutes(protected)
	protected.GET("/dashboard", func(c *gin.Context) { c.String(http.StatusOK, "hello "+c.GetString("username")) })
	protected.GET("/users", Authorize(roles.Admin), func(c *gin.Context) { c.String(http.StatusOK, "users") })

	return router
}

func TestLoginFlow(t *testing.T) {
	store := new(MockUserStore)
	user := newUser(t, "secret1", true)
	store.On("GetByUsername", "rina").Return(user, nil)
	store.On("Get", 4).Return(user, nil)
	store.On("TouchLastLogin", 4, mock.Anything).Return(nil)
	sessions := NewSessionManager([]byte("secret"), time.Hour, false, newFakeRevoker())
	router := setupRouter(sessions, store)

	form := url.Values{"username": {"rina"}, "password": {"secret1"}, "next": {"/items"}}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/items", w.Header().Get("Location"))

	var sessionCookie *http.Cookie
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == SessionCookie {
			sessionCookie = cookie
		}
	}
	require.NotNil(t, sessionCookie)
	assert.True(t, sessionCookie.HttpOnly)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(sessionCookie)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello rina", w.Body.String())

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/users", nil)
	req.AddCookie(sessionCookie)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(sessionCookie)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusSeeOther, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(sessionCookie)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusSeeOther, w.Code, "revoked session must not be accepted")
	store.AssertExpectations(t)
}

func TestLoginFailure(t *testing.T) {
	store := new(MockUserStore)
	store.On("GetByUsername", "rina").Return(newUser(t, "secret1", true), nil)
	router := setupRouter(NewSessionManager([]byte("secret"), time.Hour, false, newFakeRevoker()), store)

	form := url.Values{"username": {"rina"}, "password": {"wrong"}}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid username or password")
}

func TestLoginRateLimit(t *testing.T) {
	store := new(MockUserStore)
	store.On("GetByUsername", "rina").Return(nil, errors.New("should not matter")).Maybe()
	router := setupRouter(NewSessionManager([]byte("secret"), time.Hour, false, newFakeRevoker()), store)

	var last int
	for i := 0; i < loginAttempts+1; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("username=&password="))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		router.ServeHTTP(w, req)
		last = w.Code
	}

	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestRequireSessionRedirectsAnonymous(t *testing.T) {
	router := setupRouter(NewSessionManager([]byte("secret"), time.Hour, false, newFakeRevoker()), new(MockUserStore))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard?tab=1", nil))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login?next=%2Fdashboard%3Ftab%3D1", w.Header().Get("Location"))
}

func TestSafeNext(t *testing.T) {
	assert.Equal(t, "/items?q=a", safeNext("/items?q=a"))
	assert.Equal(t, "/dashboard", safeNext("https://evil.example"))
	assert.Equal(t, "/dashboard", safeNext("//evil.example"))
	assert.Equal(t, "/dashboard", safeNext(""))
}

func TestRequireSessionReloadsAccount(t *testing.T) {
	admin := &models.User{ID: 4, Username: "rina", Role: roles.Admin, IsActive: true}

	tests := []struct {
		name         string
		setupMock    func(m *MockUserStore)
		path         string
		wantStatus   int
		wantLocation string
		wantRevoked  bool
	}{
		{
			name: "active admin",
			setupMock: func(m *MockUserStore) {
				m.On("Get", 4).Return(admin, nil)
			},
			path:       "/users",
			wantStatus: http.StatusOK,
		},
		{
			name: "deactivated account",
			setupMock: func(m *MockUserStore) {
				m.On("Get", 4).Return(&models.User{ID: 4, Username: "rina", Role: roles.Admin, IsActive: false}, nil)
			},
			path:         "/dashboard",
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/login?next=%2Fdashboard",
			wantRevoked:  true,
		},
		{
			name: "deleted account",
			setupMock: func(m *MockUserStore) {
				m.On("Get", 4).Return(nil, custom_error.ErrNotFound)
			},
			path:         "/dashboard",
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/login?next=%2Fdashboard",
			wantRevoked:  true,
		},
		{
			name: "demoted to viewer",
			setupMock: func(m *MockUserStore) {
				m.On("Get", 4).Return(&models.User{ID: 4, Username: "rina", Role: roles.Viewer, IsActive: true}, nil)
			},
			path:       "/users",
			wantStatus: http.StatusForbidden,
		},
		{
			name: "lookup failure",
			setupMock: func(m *MockUserStore) {
				m.On("Get", 4).Return(nil, errors.New("connection refused"))
			},
			path:       "/dashboard",
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			revoker := newFakeRevoker()
			sessions := NewSessionManager([]byte("secret"), time.Hour, false, revoker)
			token, claims, err := sessions.Issue(admin)
			require.NoError(t, err)

			store := new(MockUserStore)
			tt.setupMock(store)
			router := setupRouter(sessions, store)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, w.Header().Get("Location"))
			}
			revoked, err := revoker.IsRevoked(context.Background(), claims.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRevoked, revoked)
			store.AssertExpectations(t)
		})
	}
}
