package grpc

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/housing/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestRecoveryInterceptor_ConvertsPanic(t *testing.T) {
	s := NewGRPCServer("unused", logging.NewNop())
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		panic("boom")
	}

	resp, err := s.recoveryInterceptor(context.Background(), nil, info, h)
	if resp != nil {
		t.Fatalf("unexpected resp: %v", resp)
	}
	if status.Code(err) != codes.Internal {
		t.Fatalf("expected Internal, got %v", status.Code(err))
	}
}

func TestLoggingInterceptor_PassesThrough(t *testing.T) {
	s := NewGRPCServer("unused", logging.NewNop())
	info := &grpc.UnaryServerInfo{FullMethod: "/pkg.Service/Method"}

	handlerCalled := false
	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		handlerCalled = true
		return "ok", status.Error(codes.NotFound, "nope")
	}

	resp, err := s.loggingInterceptor(context.Background(), nil, info, h)
	if !handlerCalled {
		t.Fatal("handler was not called")
	}
	if resp != "ok" || status.Code(err) != codes.NotFound {
		t.Fatalf("unexpected result: %v, %v", resp, err)
	}
}
