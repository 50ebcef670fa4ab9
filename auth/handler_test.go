package auth

import (
	"api/domain"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTokenManager struct {
	mock.Mock
}

func (m *MockTokenManager) Generate(guest domain.Guest, now time.Time) (string, error) {
	args := m.Called(guest, now)
	return args.String(0), args.Error(1)
}

func (m *MockTokenManager) Verify(token string) (domain.Guest, error) {
	args := m.Called(token)
	return args.Get(0).(domain.Guest), args.Error(1)
}

func TestGuestHandler_Validation(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	testCases := []struct {
		name         string
		body         string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "invalid json",
			body:         `{invalid}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: ErrInvalidRequestFormatStr,
		},
		{
			name:         "empty username",
			body:         `{"username":"   "}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: ErrInvalidUsernameFormatStr,
		},
		{
			name:         "username too long",
			body:         `{"username":"` + strings.Repeat("x", 33) + `"}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: ErrInvalidUsernameFormatStr,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tokenManager := &MockTokenManager{}
			handler := NewAuthHandler(tokenManager, time.Hour)

			r := gin.New()
			r.POST("/auth/guest", handler.GuestHandler)

			req := httptest.NewRequest(http.MethodPost, "/auth/guest", strings.NewReader(tc.body))
			res := httptest.NewRecorder()
			r.ServeHTTP(res, req)

			assert.Equal(t, tc.expectedCode, res.Code)
			assert.Contains(t, res.Body.String(), tc.expectedBody)
			tokenManager.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
		})
	}
}

func TestGuestHandler_IssuesCookie(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	tokenManager := &MockTokenManager{}
	tokenManager.On("Generate", mock.MatchedBy(func(g domain.Guest) bool {
		return g.Username == "alice" && g.Id != ""
	}), mock.Anything).Return("signed-token", nil).Once()

	handler := NewAuthHandler(tokenManager, time.Hour)
	r := gin.New()
	r.POST("/auth/guest", handler.GuestHandler)

	req := httptest.NewRequest(http.MethodPost, "/auth/guest", strings.NewReader(`{"username":"  alice "}`))
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)

	require.Equal(t, http.StatusCreated, res.Code)
	assert.Contains(t, res.Body.String(), `"username":"alice"`)

	cookies := res.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "token", cookies[0].Name)
	assert.Equal(t, "signed-token", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	tokenManager.AssertExpectations(t)
}

func TestRequireAuthMiddleware(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	testCases := []struct {
		name         string
		cookie       string
		setupMocks   func(*MockTokenManager)
		expectedCode int
		expectedBody string
	}{
		{
			name:         "missing token",
			cookie:       "",
			setupMocks:   func(m *MockTokenManager) {},
			expectedCode: http.StatusUnauthorized,
			expectedBody: ErrMissingTokenStr,
		},
		{
			name:   "expired token",
			cookie: "old-token",
			setupMocks: func(m *MockTokenManager) {
				m.On("Verify", "old-token").Return(domain.Guest{}, domain.ErrExpiredToken).Once()
			},
			expectedCode: http.StatusUnauthorized,
			expectedBody: ErrExpiredTokenStr,
		},
		{
			name:   "tampered token",
			cookie: "bad-token",
			setupMocks: func(m *MockTokenManager) {
				m.On("Verify", "bad-token").Return(domain.Guest{}, domain.ErrInvalidTokenSignature).Once()
			},
			expectedCode: http.StatusInternalServerError,
		},
		{
			name:   "valid token",
			cookie: "good-token",
			setupMocks: func(m *MockTokenManager) {
				m.On("Verify", "good-token").Return(domain.Guest{Id: "guest-1", Username: "alice"}, nil).Once()
			},
			expectedCode: http.StatusOK,
			expectedBody: "guest-1/alice",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tokenManager := &MockTokenManager{}
			tc.setupMocks(tokenManager)
			handler := NewAuthHandler(tokenManager, time.Hour)

			r := gin.New()
			r.Use(handler.RequireAuthMiddleware(0))
			r.GET("/whoami", func(ctx *gin.Context) {
				ctx.String(http.StatusOK, ctx.GetString("id")+"/"+ctx.GetString("username"))
			})

			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tc.cookie})
			}
			res := httptest.NewRecorder()
			r.ServeHTTP(res, req)

			assert.Equal(t, tc.expectedCode, res.Code)
			if tc.expectedBody != "" {
				assert.Contains(t, res.Body.String(), tc.expectedBody)
			}
			tokenManager.AssertExpectations(t)
		})
	}
}
