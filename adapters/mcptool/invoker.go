// Package mcptool adapts an MCP client session into the engine's
// ToolInvoker contract, so tool nodes can call any MCP-served tool.
package mcptool

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Invoker calls tools over one connected MCP client session.
type Invoker struct {
	session *sdkmcp.ClientSession
}

func New(session *sdkmcp.ClientSession) *Invoker {
	return &Invoker{session: session}
}

// CallTool invokes the named tool and flattens its text content into one
// string. A tool-level error result becomes a Go error carrying the text.
func (i *Invoker) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	res, err := i.session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return "", fmt.Errorf("mcp call %q: %w", name, err)
	}

	var parts []string
	for _, c := range res.Content {
		if tc, ok := c.(*sdkmcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	text := strings.Join(parts, "\n")

	if res.IsError {
		return "", fmt.Errorf("tool %q failed: %s", name, text)
	}
	return text, nil
}
