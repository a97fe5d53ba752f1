package mcptool

import (
	"context"
	"fmt"
	"strings"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type shoutIn struct {
	Text string `json:"text"`
}

type shoutOut struct {
	Text string `json:"text"`
}

func connectTestServer(t *testing.T, ctx context.Context) *sdkmcp.ClientSession {
	t.Helper()
	srv := sdkmcp.NewServer(&sdkmcp.Implementation{Name: "test-tools", Version: "v0.0.1"}, nil)
	sdkmcp.AddTool(srv, &sdkmcp.Tool{
		Name:        "shout",
		Description: "Uppercase the input text",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in shoutIn) (*sdkmcp.CallToolResult, shoutOut, error) {
		if in.Text == "" {
			return nil, shoutOut{}, fmt.Errorf("text is required")
		}
		return nil, shoutOut{Text: strings.ToUpper(in.Text)}, nil
	})

	t1, t2 := sdkmcp.NewInMemoryTransports()
	serverSession, err := srv.Connect(ctx, t1, nil)
	if err != nil {
		t.Fatalf("server.Connect: %v", err)
	}
	t.Cleanup(func() { serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func TestInvoker_CallTool(t *testing.T) {
	ctx := context.Background()
	inv := New(connectTestServer(t, ctx))

	got, err := inv.CallTool(ctx, "shout", map[string]any{"text": "hello"})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !strings.Contains(got, "HELLO") {
		t.Errorf("result = %q, want the uppercased text", got)
	}
}

func TestInvoker_ToolErrorBecomesGoError(t *testing.T) {
	ctx := context.Background()
	inv := New(connectTestServer(t, ctx))

	_, err := inv.CallTool(ctx, "shout", map[string]any{"text": ""})
	if err == nil {
		t.Fatal("expected an error for a failing tool")
	}
	if !strings.Contains(err.Error(), "shout") {
		t.Errorf("error = %v, want the tool name in it", err)
	}
}
