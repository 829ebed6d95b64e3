package roleguardecho

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roleguard/roleguard"
	"github.com/roleguard/roleguard/core"
	"github.com/roleguard/roleguard/internal/tokentest"
)

func newServer(t *testing.T, engine *roleguard.Engine, opts ...Option) *echo.Echo {
	t.Helper()

	guard, err := New(engine, opts...)
	require.NoError(t, err)

	e := echo.New()
	e.GET("/report", func(c echo.Context) error {
		claims, ok := GetClaims(c, "")
		if !ok {
			return c.String(http.StatusInternalServerError, "no claims")
		}
		return c.String(http.StatusOK, claims.Subject)
	}, guard.MustRequirePolicy("hasAllRoles(ROLE_ADMIN, ROLE_AUDITOR)"))
	return e
}

func TestMiddleware(t *testing.T) {
	issuer := tokentest.NewIssuer(t)
	engine, err := roleguard.New(context.Background(), issuer.Config())
	require.NoError(t, err)
	server := newServer(t, engine)

	testCases := []struct {
		name          string
		authHeader    string
		wantStatus    int
		wantBody      string
		wantChallenge string
	}{
		{
			name:       "all roles held",
			authHeader: "Bearer " + issuer.Token(t, "admin", "auditor"),
			wantStatus: http.StatusOK,
			wantBody:   "user-1",
		},
		{
			name:          "one role missing",
			authHeader:    "Bearer " + issuer.Token(t, "admin"),
			wantStatus:    http.StatusForbidden,
			wantBody:      `{"error":"insufficient_scope","error_description":"The caller does not hold the required roles","error_code":"insufficient_roles"}`,
			wantChallenge: `Bearer error="insufficient_scope", error_description="The caller does not hold the required roles"`,
		},
		{
			name:          "missing token",
			wantStatus:    http.StatusUnauthorized,
			wantBody:      `{"error":"invalid_token","error_code":"token_missing"}`,
			wantChallenge: "Bearer",
		},
		{
			name:       "malformed token",
			authHeader: "Bearer not-a-jwt",
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"invalid_request","error_description":"The access token is malformed","error_code":"token_malformed"}`,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/report", nil)
			if testCase.authHeader != "" {
				request.Header.Set(echo.HeaderAuthorization, testCase.authHeader)
			}
			recorder := httptest.NewRecorder()

			server.ServeHTTP(recorder, request)

			assert.Equal(t, testCase.wantStatus, recorder.Code)
			if testCase.wantStatus == http.StatusOK {
				assert.Equal(t, testCase.wantBody, recorder.Body.String())
			} else {
				assert.JSONEq(t, testCase.wantBody, recorder.Body.String())
			}
			if testCase.wantChallenge != "" {
				assert.Equal(t, testCase.wantChallenge, recorder.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestMiddleware_Options(t *testing.T) {
	issuer := tokentest.NewIssuer(t)
	engine, err := roleguard.New(context.Background(), issuer.Config())
	require.NoError(t, err)

	t.Run("error handler result reaches echo", func(t *testing.T) {
		server := newServer(t, engine, WithErrorHandler(func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusTeapot, core.CodeOf(err))
		}))

		request := httptest.NewRequest(http.MethodGet, "/report", nil)
		request.Header.Set(echo.HeaderAuthorization, "Bearer "+issuer.Token(t, "user"))
		recorder := httptest.NewRecorder()
		server.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusTeapot, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "insufficient_roles")
	})

	t.Run("cookie extractor and custom key", func(t *testing.T) {
		guard, err := New(engine,
			WithTokenExtractor(roleguard.CookieTokenExtractor("jwt")),
			WithContextKey("caller"))
		require.NoError(t, err)

		e := echo.New()
		e.GET("/", func(c echo.Context) error {
			claims, ok := GetClaims(c, "caller")
			if !ok {
				return c.NoContent(http.StatusInternalServerError)
			}
			return c.String(http.StatusOK, claims.Roles.String())
		}, guard.MustRequirePolicy("ROLE_ADMIN"))

		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.AddCookie(&http.Cookie{Name: "jwt", Value: issuer.Token(t, "admin")})
		recorder := httptest.NewRecorder()
		e.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "ROLE_ADMIN", recorder.Body.String())
	})

	t.Run("invalid options", func(t *testing.T) {
		_, err := New(nil)
		assert.ErrorIs(t, err, ErrEngineNil)

		for _, opt := range []Option{WithErrorHandler(nil), WithContextKey(""), WithTokenExtractor(nil), WithLogger(nil)} {
			_, err := New(engine, opt)
			assert.Error(t, err)
		}
	})

	t.Run("malformed policy", func(t *testing.T) {
		guard, err := New(engine)
		require.NoError(t, err)
		assert.Panics(t, func() { guard.MustRequirePolicy("hasAllRoles()") })
	})
}

func TestMiddleware_Disabled(t *testing.T) {
	issuer := tokentest.NewIssuer(t)
	cfg := issuer.Config()
	cfg.Disabled = true
	logger, hook := logrustest.NewNullLogger()
	engine, err := roleguard.New(context.Background(), cfg, roleguard.WithLogger(roleguard.NewLogrusLogger(logger)))
	require.NoError(t, err)

	hook.Reset()
	guard, err := New(engine)
	require.NoError(t, err)
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "Security is disabled, requests will not be authorized", hook.LastEntry().Message)

	e := echo.New()
	e.GET("/", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, guard.MustRequirePolicy("ROLE_ADMIN"))

	recorder := httptest.NewRecorder()
	e.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, recorder.Code)
}

func TestGetClaims(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	_, ok := GetClaims(c, "")
	assert.False(t, ok)

	c.Set(DefaultClaimsKey, "not claims")
	_, ok = GetClaims(c, "")
	assert.False(t, ok)

	claims := &core.Claims{Subject: "user-1"}
	c.Set(DefaultClaimsKey, claims)
	got, ok := GetClaims(c, "")
	assert.True(t, ok)
	assert.Same(t, claims, got)
}
