package mcpserver

import (
	"context"

	"battle-companion/internal/battle"

	"github.com/mark3labs/mcp-go/mcp"
)

type battleResponse struct {
	OK           bool            `json:"ok"`
	WorkspaceURL string          `json:"workspace_url,omitempty"`
	State        battle.Snapshot `json:"state"`
}

func (s *Server) registerBattleTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"battle_state",
			mcp.WithDescription("Current battle session state"),
		),
		s.handleBattleState,
	)
	s.mcpServer.AddTool(
		mcp.NewTool(
			"start_match",
			mcp.WithDescription("Start matchmaking against a random opponent or the AI"),
			mcp.WithString("mode", mcp.Description("1v1|ai (default 1v1)")),
		),
		s.handleStartMatch,
	)
	s.mcpServer.AddTool(
		mcp.NewTool(
			"create_room",
			mcp.WithDescription("Create a private room and wait for a friend to join"),
		),
		s.handleCreateRoom,
	)
	s.mcpServer.AddTool(
		mcp.NewTool(
			"join_room",
			mcp.WithDescription("Join a friend's private room by code"),
			mcp.WithString("room_code", mcp.Required(), mcp.Description("Room code shared by the creator")),
		),
		s.handleJoinRoom,
	)
	s.mcpServer.AddTool(
		mcp.NewTool(
			"cancel_battle",
			mcp.WithDescription("Cancel matchmaking or leave the current battle flow"),
		),
		s.handleCancel,
	)
	s.mcpServer.AddTool(
		mcp.NewTool(
			"disband_room",
			mcp.WithDescription("Disband our private room while nobody has joined"),
		),
		s.handleDisband,
	)
	s.mcpServer.AddTool(
		mcp.NewTool(
			"enter_room",
			mcp.WithDescription("Open the battle workspace for a found match"),
		),
		s.handleEnterRoom,
	)
	s.mcpServer.AddTool(
		mcp.NewTool(
			"resume_conflict",
			mcp.WithDescription("Continue the battle session the server already has"),
		),
		s.handleResumeConflict,
	)
	s.mcpServer.AddTool(
		mcp.NewTool(
			"abandon_conflict",
			mcp.WithDescription("Abandon the battle session the server already has"),
		),
		s.handleAbandonConflict,
	)
}

func (s *Server) respond(url string) *mcp.CallToolResult {
	return toolResult(battleResponse{OK: true, WorkspaceURL: url, State: s.coord.Snapshot()})
}

func (s *Server) handleBattleState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolResult(s.coord.Snapshot()), nil
}

func (s *Server) handleStartMatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode, err := battle.ParseMode(request.GetString("mode", ""))
	if err != nil {
		return battleError(err), nil
	}
	if err := s.coord.StartMatch(ctx, mode); err != nil {
		return battleError(err), nil
	}
	return s.respond(""), nil
}

func (s *Server) handleCreateRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.coord.CreateRoom(ctx); err != nil {
		return battleError(err), nil
	}
	return s.respond(""), nil
}

func (s *Server) handleJoinRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("room_code")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	if err := s.coord.JoinRoom(ctx, code); err != nil {
		return battleError(err), nil
	}
	return s.respond(""), nil
}

func (s *Server) handleCancel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.coord.Cancel()
	return s.respond(""), nil
}

func (s *Server) handleDisband(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.coord.Disband(); err != nil {
		return battleError(err), nil
	}
	return s.respond(""), nil
}

func (s *Server) handleEnterRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := s.coord.EnterRoom()
	if err != nil {
		return battleError(err), nil
	}
	return s.respond(url), nil
}

func (s *Server) handleResumeConflict(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := s.coord.ResumeConflict()
	if err != nil {
		return battleError(err), nil
	}
	return s.respond(url), nil
}

func (s *Server) handleAbandonConflict(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.coord.AbandonConflict(ctx); err != nil {
		return battleError(err), nil
	}
	return s.respond(""), nil
}
