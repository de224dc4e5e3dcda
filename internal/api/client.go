package api

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// CalendarClient calls the Calendar service over a gRPC connection.
type CalendarClient struct {
	cc grpc.ClientConnInterface
}

// NewCalendarClient wraps an established connection.
func NewCalendarClient(cc grpc.ClientConnInterface) *CalendarClient {
	return &CalendarClient{cc: cc}
}

// Dial creates an insecure client connection to addr. The caller closes the
// returned connection.
func Dial(addr string, opts ...grpc.DialOption) (*grpc.ClientConn, *CalendarClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	return conn, NewCalendarClient(conn), nil
}

// Call invokes method with the given request fields and returns the response
// fields.
func (c *CalendarClient) Call(ctx context.Context, method string, req map[string]any, opts ...grpc.CallOption) (map[string]any, error) {
	if req == nil {
		req = map[string]any{}
	}
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", method, err)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}
