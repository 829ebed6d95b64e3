package grpc

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/roleguard/roleguard"
	"github.com/roleguard/roleguard/core"
	"github.com/roleguard/roleguard/internal/tokentest"
)

const (
	refundMethod = "/billing.Billing/Refund"
	listMethod   = "/billing.Billing/List"
	healthMethod = "/grpc.health.v1.Health/Check"
)

func newTestInterceptor(t *testing.T, opts ...Option) (*Interceptor, *tokentest.Issuer) {
	t.Helper()

	issuer := tokentest.NewIssuer(t)
	engine, err := roleguard.New(context.Background(), issuer.Config())
	require.NoError(t, err)

	opts = append([]Option{
		WithDefaultPolicy("ROLE_USER"),
		WithMethodPolicy(refundMethod, "hasAllRoles(ROLE_BILLING, ROLE_ADMIN)"),
	}, opts...)

	interceptor, err := New(engine, opts...)
	require.NoError(t, err)
	return interceptor, issuer
}

func withToken(token string) context.Context {
	md := metadata.Pairs("authorization", "Bearer "+token)
	return metadata.NewIncomingContext(context.Background(), md)
}

func TestUnaryServerInterceptor(t *testing.T) {
	interceptor, issuer := newTestInterceptor(t, WithExcludedMethods(healthMethod))

	testCases := []struct {
		name     string
		ctx      context.Context
		method   string
		wantCode codes.Code
	}{
		{
			name:     "method policy satisfied",
			ctx:      withToken(issuer.Token(t, "billing", "admin")),
			method:   refundMethod,
			wantCode: codes.OK,
		},
		{
			name:     "method policy not satisfied",
			ctx:      withToken(issuer.Token(t, "billing", "user")),
			method:   refundMethod,
			wantCode: codes.PermissionDenied,
		},
		{
			name:     "default policy satisfied",
			ctx:      withToken(issuer.Token(t, "user")),
			method:   listMethod,
			wantCode: codes.OK,
		},
		{
			name:     "no roles",
			ctx:      withToken(issuer.Token(t)),
			method:   listMethod,
			wantCode: codes.PermissionDenied,
		},
		{
			name:     "missing token",
			ctx:      context.Background(),
			method:   listMethod,
			wantCode: codes.Unauthenticated,
		},
		{
			name:     "expired token",
			ctx:      withToken(issuer.ExpiredToken(t, "user")),
			method:   listMethod,
			wantCode: codes.Unauthenticated,
		},
		{
			name: "malformed metadata",
			ctx: metadata.NewIncomingContext(context.Background(),
				metadata.Pairs("authorization", "Basic dXNlcjpwYXNz")),
			method:   listMethod,
			wantCode: codes.InvalidArgument,
		},
		{
			name:     "excluded method",
			ctx:      context.Background(),
			method:   healthMethod,
			wantCode: codes.OK,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			called := false
			handler := func(ctx context.Context, req any) (any, error) {
				called = true
				if testCase.method != healthMethod {
					assert.NotNil(t, MustGetClaims(ctx))
				}
				return "success", nil
			}

			resp, err := interceptor.UnaryServerInterceptor()(testCase.ctx, nil,
				&grpc.UnaryServerInfo{FullMethod: testCase.method}, handler)

			assert.Equal(t, testCase.wantCode, status.Code(err))
			if testCase.wantCode == codes.OK {
				assert.True(t, called)
				assert.Equal(t, "success", resp)
			} else {
				assert.False(t, called, "handler should not be called")
				assert.Nil(t, resp)
			}
		})
	}
}

func TestUnaryServerInterceptor_NoPolicy(t *testing.T) {
	issuer := tokentest.NewIssuer(t)
	engine, err := roleguard.New(context.Background(), issuer.Config())
	require.NoError(t, err)

	interceptor, err := New(engine, WithMethodPolicy(refundMethod, "ROLE_ADMIN"))
	require.NoError(t, err)

	handler := func(ctx context.Context, req any) (any, error) {
		t.Fatal("handler should not be called")
		return nil, nil
	}

	_, err = interceptor.UnaryServerInterceptor()(withToken(issuer.Token(t, "admin")), nil,
		&grpc.UnaryServerInfo{FullMethod: listMethod}, handler)
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestStreamServerInterceptor(t *testing.T) {
	interceptor, issuer := newTestInterceptor(t, WithExcludedMethods(healthMethod))

	t.Run("authorized stream sees claims", func(t *testing.T) {
		stream := &mockServerStream{ctx: withToken(issuer.Token(t, "user"))}

		err := interceptor.StreamServerInterceptor()(nil, stream, &grpc.StreamServerInfo{FullMethod: listMethod},
			func(srv any, ss grpc.ServerStream) error {
				claims, err := GetClaims(ss.Context())
				require.NoError(t, err)
				assert.Equal(t, "user-1", claims.Subject)
				return nil
			})
		assert.NoError(t, err)
	})

	t.Run("missing token", func(t *testing.T) {
		stream := &mockServerStream{ctx: context.Background()}

		err := interceptor.StreamServerInterceptor()(nil, stream, &grpc.StreamServerInfo{FullMethod: listMethod},
			func(srv any, ss grpc.ServerStream) error {
				t.Fatal("handler should not be called")
				return nil
			})
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("excluded method", func(t *testing.T) {
		stream := &mockServerStream{ctx: context.Background()}

		err := interceptor.StreamServerInterceptor()(nil, stream, &grpc.StreamServerInfo{FullMethod: healthMethod},
			func(srv any, ss grpc.ServerStream) error {
				assert.False(t, HasClaims(ss.Context()))
				return nil
			})
		assert.NoError(t, err)
	})
}

func TestInterceptor_Disabled(t *testing.T) {
	issuer := tokentest.NewIssuer(t)
	cfg := issuer.Config()
	cfg.Disabled = true
	engine, err := roleguard.New(context.Background(), cfg)
	require.NoError(t, err)

	logger := &mockLogger{}
	interceptor, err := New(engine, WithDefaultPolicy("ROLE_ADMIN"), WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, logger.messages("warn"), "Security is disabled, gRPC calls will not be authorized")

	resp, err := interceptor.UnaryServerInterceptor()(context.Background(), nil,
		&grpc.UnaryServerInfo{FullMethod: listMethod},
		func(ctx context.Context, req any) (any, error) { return "success", nil })
	assert.NoError(t, err)
	assert.Equal(t, "success", resp)
}

func TestCustomErrorHandler(t *testing.T) {
	var got error
	interceptor, _ := newTestInterceptor(t, WithErrorHandler(func(err error) error {
		got = err
		return status.Error(codes.PermissionDenied, "custom error")
	}))

	_, err := interceptor.UnaryServerInterceptor()(context.Background(), nil,
		&grpc.UnaryServerInfo{FullMethod: listMethod},
		func(ctx context.Context, req any) (any, error) { return nil, nil })

	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.PermissionDenied, st.Code())
	assert.Equal(t, "custom error", st.Message())
	assert.Equal(t, core.ErrorCodeTokenMissing, core.CodeOf(got))
}

func TestCustomTokenExtractor(t *testing.T) {
	issuer := tokentest.NewIssuer(t)
	engine, err := roleguard.New(context.Background(), issuer.Config())
	require.NoError(t, err)

	t.Run("token", func(t *testing.T) {
		token := issuer.Token(t, "user")
		interceptor, err := New(engine, WithDefaultPolicy("ROLE_USER"),
			WithTokenExtractor(func(ctx context.Context) (string, error) { return token, nil }))
		require.NoError(t, err)

		resp, err := interceptor.UnaryServerInterceptor()(context.Background(), nil,
			&grpc.UnaryServerInfo{FullMethod: listMethod},
			func(ctx context.Context, req any) (any, error) { return "success", nil })
		assert.NoError(t, err)
		assert.Equal(t, "success", resp)
	})

	t.Run("error", func(t *testing.T) {
		interceptor, err := New(engine, WithDefaultPolicy("ROLE_USER"),
			WithTokenExtractor(func(ctx context.Context) (string, error) {
				return "", errors.New("custom extraction error")
			}))
		require.NoError(t, err)

		_, err = interceptor.UnaryServerInterceptor()(context.Background(), nil,
			&grpc.UnaryServerInfo{FullMethod: listMethod},
			func(ctx context.Context, req any) (any, error) { return nil, nil })
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})
}

func TestClaimsHelpers(t *testing.T) {
	ctx := context.Background()
	assert.False(t, HasClaims(ctx))
	_, err := GetClaims(ctx)
	assert.ErrorIs(t, err, core.ErrClaimsNotFound)
	assert.Panics(t, func() { MustGetClaims(ctx) })

	claims := &core.Claims{Subject: "user-1"}
	ctx = core.SetClaims(ctx, claims)
	assert.True(t, HasClaims(ctx))
	assert.Same(t, claims, MustGetClaims(ctx))
}

// mockLogger records messages per level.
type mockLogger struct {
	mu   sync.Mutex
	msgs map[string][]string
}

func (m *mockLogger) log(level, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.msgs == nil {
		m.msgs = make(map[string][]string)
	}
	m.msgs[level] = append(m.msgs[level], msg)
}

func (m *mockLogger) messages(level string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.msgs[level]...)
}

func (m *mockLogger) Debug(msg string, args ...any) { m.log("debug", msg) }
func (m *mockLogger) Info(msg string, args ...any)  { m.log("info", msg) }
func (m *mockLogger) Warn(msg string, args ...any)  { m.log("warn", msg) }
func (m *mockLogger) Error(msg string, args ...any) { m.log("error", msg) }

// mockServerStream implements grpc.ServerStream for testing
type mockServerStream struct {
	ctx context.Context
}

func (m *mockServerStream) Context() context.Context {
	return m.ctx
}

func (m *mockServerStream) SetHeader(metadata.MD) error {
	return nil
}

func (m *mockServerStream) SendHeader(metadata.MD) error {
	return nil
}

func (m *mockServerStream) SetTrailer(metadata.MD) {
}

func (m *mockServerStream) SendMsg(any) error {
	return nil
}

func (m *mockServerStream) RecvMsg(any) error {
	return nil
}
