package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"

	"battle-companion/internal/battle"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const stateResourceURI = "battle://state"

// Server exposes the battle coordinator to MCP clients (agents, editor
// plugins) over stateless streamable HTTP.
type Server struct {
	coord *battle.Coordinator

	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
}

func New(coord *battle.Coordinator) *Server {
	mcpSrv := server.NewMCPServer(
		"battle-companion",
		"0.1.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
		server.WithResourceRecovery(),
	)
	s := &Server{
		coord:      coord,
		mcpServer:  mcpSrv,
		httpServer: server.NewStreamableHTTPServer(mcpSrv, server.WithStateLess(true), server.WithDisableStreaming(true)),
	}
	s.registerBattleTools()
	s.registerResources()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpServer
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcp.NewResource(
			stateResourceURI,
			"battle_state",
			mcp.WithResourceDescription("Current battle session snapshot"),
			mcp.WithMIMEType("application/json"),
		),
		func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			payload, err := json.Marshal(s.coord.Snapshot())
			if err != nil {
				return nil, err
			}
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      stateResourceURI,
					MIMEType: "application/json",
					Text:     string(payload),
				},
			}, nil
		},
	)
}
