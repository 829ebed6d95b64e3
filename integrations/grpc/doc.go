// Package grpc provides gRPC server interceptors that authorize each call
// against a role policy.
//
// Policies are attached per full method name ("/package.Service/Method").
// Methods without a policy of their own use the default policy; calls to a
// method that has neither fail with codes.Internal, so a forgotten mapping
// never opens a method to everyone.
//
// # Basic Usage
//
//	engine, err := roleguard.New(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	interceptor, err := rgrpc.New(engine,
//	    rgrpc.WithDefaultPolicy("ROLE_USER"),
//	    rgrpc.WithMethodPolicy("/billing.Billing/Refund", "hasAllRoles(ROLE_BILLING, ROLE_ADMIN)"),
//	    rgrpc.WithExcludedMethods("/grpc.health.v1.Health/Check"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	server := grpc.NewServer(
//	    grpc.UnaryInterceptor(interceptor.UnaryServerInterceptor()),
//	    grpc.StreamInterceptor(interceptor.StreamServerInterceptor()),
//	)
//
// # Status Codes
//
// DefaultErrorHandler maps denials to gRPC status codes:
//
//   - malformed authorization metadata: InvalidArgument
//   - missing, invalid or expired tokens: Unauthenticated
//   - missing roles: PermissionDenied
//   - configuration problems: Internal
//
// # Claims Retrieval
//
//	func (s *server) Refund(ctx context.Context, req *pb.RefundRequest) (*pb.RefundReply, error) {
//	    claims, err := rgrpc.GetClaims(ctx)
//	    if err != nil {
//	        return nil, status.Error(codes.Internal, "failed to get claims")
//	    }
//	    log.Printf("refund requested by %s", claims.Subject)
//	    ...
//	}
package grpc
