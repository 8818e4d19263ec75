package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

const (
	serverName    = "mcp-reminders"
	serverVersion = "1.0.0"
)

// listsResourceURI exposes the reminder lists as a readable resource in
// addition to the list_reminder_lists tool.
const listsResourceURI = "reminders://lists"

// Server is the MCP server for Apple Reminders access.
type Server struct {
	mcpServer *server.MCPServer
	store     Store
	log       zerolog.Logger
}

// NewServer creates a new Reminders MCP server backed by the given store.
func NewServer(store Store, log zerolog.Logger) *Server {
	s := &Server{
		store: store,
		log:   log,
	}

	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying MCP server for serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	// list_reminder_lists
	s.mcpServer.AddTool(
		mcp.NewTool("list_reminder_lists",
			mcp.WithDescription("List all available reminder lists"),
		),
		s.handleListReminderLists,
	)

	// list_reminders
	s.mcpServer.AddTool(
		mcp.NewTool("list_reminders",
			mcp.WithDescription("List reminders with optional due-date range, list and completion filters"),
			mcp.WithString("start_date", mcp.Description("Include reminders due on or after this date (ISO format, e.g. 2026-01-16T14:00)")),
			mcp.WithString("end_date", mcp.Description("Include reminders due on or before this date (ISO format)")),
			mcp.WithString("list_name", mcp.Description("Only reminders from this list (exact name, see list_reminder_lists)")),
			mcp.WithBoolean("include_completed", mcp.Description("Include completed reminders (default: false)")),
		),
		s.handleListReminders,
	)

	// create_reminder
	s.mcpServer.AddTool(
		mcp.NewTool("create_reminder",
			mcp.WithDescription("Create a new reminder with a title and optional due date, notes, priority and list"),
			mcp.WithString("title", mcp.Required(), mcp.Description("Reminder title")),
			mcp.WithString("due_date", mcp.Description("Due date in ISO format (e.g. 2026-01-16T14:00 or 2026-01-16)")),
			mcp.WithString("notes", mcp.Description("Optional notes")),
			mcp.WithString("priority", mcp.Description("Priority: none, low, medium, high or an ordinal 0-9 (default: none)")),
			mcp.WithString("list_name", mcp.Description("Target list name (default: the default Reminders list)")),
		),
		s.handleCreateReminder,
	)

	// update_reminder
	s.mcpServer.AddTool(
		mcp.NewTool("update_reminder",
			mcp.WithDescription("Update a reminder's fields; omitted fields are left unchanged"),
			mcp.WithString("reminder_id", mcp.Required(), mcp.Description("Reminder ID from list_reminders")),
			mcp.WithString("title", mcp.Description("New title")),
			mcp.WithString("due_date", mcp.Description("New due date in ISO format")),
			mcp.WithString("notes", mcp.Description("New notes (empty string clears them)")),
			mcp.WithString("priority", mcp.Description("New priority: none, low, medium, high or an ordinal 0-9")),
			mcp.WithString("list_name", mcp.Description("Move the reminder to this list")),
			mcp.WithBoolean("completed", mcp.Description("Set the completion state")),
		),
		s.handleUpdateReminder,
	)

	// complete_reminder
	s.mcpServer.AddTool(
		mcp.NewTool("complete_reminder",
			mcp.WithDescription("Mark a reminder as completed"),
			mcp.WithString("reminder_id", mcp.Required(), mcp.Description("Reminder ID from list_reminders")),
		),
		s.handleCompleteReminder,
	)

	// delete_reminder
	s.mcpServer.AddTool(
		mcp.NewTool("delete_reminder",
			mcp.WithDescription("Delete a reminder permanently"),
			mcp.WithString("reminder_id", mcp.Required(), mcp.Description("Reminder ID from list_reminders")),
		),
		s.handleDeleteReminder,
	)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcp.NewResource(listsResourceURI, "Reminder Lists",
			mcp.WithResourceDescription("All reminder lists accepted by the list_name arguments"),
			mcp.WithMIMEType("application/json"),
		),
		s.handleListsResource,
	)
}

func (s *Server) handleListReminderLists(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lists, err := s.store.Lists(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("list reminder lists failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to list reminder lists: %v", err)), nil
	}
	SortLists(lists)

	if len(lists) == 0 {
		return mcp.NewToolResultText("No reminder lists found."), nil
	}

	output, _ := json.MarshalIndent(lists, "", "  ")
	return mcp.NewToolResultText(string(output)), nil
}

func (s *Server) handleListReminders(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := Filter{
		ListName:         req.GetString("list_name", ""),
		IncludeCompleted: req.GetBool("include_completed", false),
	}

	if v := req.GetString("start_date", ""); v != "" {
		t, err := ParseDueDate(v)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid start_date: %v", err)), nil
		}
		f.StartDate = &t
	}
	if v := req.GetString("end_date", ""); v != "" {
		t, err := ParseDueDate(v)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid end_date: %v", err)), nil
		}
		f.EndDate = &t
	}

	reminders, err := s.store.Reminders(ctx, f)
	if err != nil {
		s.log.Error().Err(err).Msg("list reminders failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to list reminders: %v", err)), nil
	}

	if len(reminders) == 0 {
		return mcp.NewToolResultText("No reminders found matching the criteria."), nil
	}

	output, _ := json.MarshalIndent(reminders, "", "  ")
	return mcp.NewToolResultText(string(output)), nil
}

func (s *Server) handleCreateReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	if strings.TrimSpace(title) == "" {
		return mcp.NewToolResultError("title is required and must not be empty"), nil
	}

	cr := CreateRequest{
		Title:    title,
		Notes:    req.GetString("notes", ""),
		ListName: req.GetString("list_name", ""),
	}

	if v := req.GetString("priority", ""); v != "" {
		p, err := ParsePriority(v)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid priority: %v", err)), nil
		}
		cr.Priority = p
	}
	if v := req.GetString("due_date", ""); v != "" {
		t, err := ParseDueDate(v)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid due_date: %v", err)), nil
		}
		cr.DueDate = &t
	}

	created, err := s.store.Create(ctx, cr)
	if err != nil {
		s.log.Error().Err(err).Msg("create reminder failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to create reminder: %v", err)), nil
	}
	s.log.Info().Str("id", created.ID).Str("title", created.Title).Msg("reminder created")

	output, _ := json.MarshalIndent(created, "", "  ")
	return mcp.NewToolResultText(string(output)), nil
}

func (s *Server) handleUpdateReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("reminder_id", "")
	if id == "" {
		return mcp.NewToolResultError("reminder_id is required"), nil
	}

	args := req.GetArguments()
	var fields UpdateFields

	if _, ok := args["title"]; ok {
		v := req.GetString("title", "")
		if strings.TrimSpace(v) == "" {
			return mcp.NewToolResultError("title must not be empty"), nil
		}
		fields.Title = &v
	}
	// Presence matters for notes and completed: an empty string clears the
	// notes and false un-completes, so GetString's zero value can't stand
	// in for "not supplied".
	if _, ok := args["notes"]; ok {
		v := req.GetString("notes", "")
		fields.Notes = &v
	}
	if v := req.GetString("due_date", ""); v != "" {
		t, err := ParseDueDate(v)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid due_date: %v", err)), nil
		}
		fields.DueDate = &t
	}
	if v := req.GetString("priority", ""); v != "" {
		p, err := ParsePriority(v)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid priority: %v", err)), nil
		}
		fields.Priority = &p
	}
	if v := req.GetString("list_name", ""); v != "" {
		fields.ListName = &v
	}
	if _, ok := args["completed"]; ok {
		v := req.GetBool("completed", false)
		fields.Completed = &v
	}

	updated, err := s.store.Update(ctx, id, fields)
	if err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("update reminder failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to update reminder: %v", err)), nil
	}
	s.log.Info().Str("id", id).Msg("reminder updated")

	output, _ := json.MarshalIndent(updated, "", "  ")
	return mcp.NewToolResultText(string(output)), nil
}

func (s *Server) handleCompleteReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("reminder_id", "")
	if id == "" {
		return mcp.NewToolResultError("reminder_id is required"), nil
	}

	completed, err := s.store.Complete(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("complete reminder failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to complete reminder: %v", err)), nil
	}
	s.log.Info().Str("id", id).Msg("reminder completed")

	output, _ := json.MarshalIndent(completed, "", "  ")
	return mcp.NewToolResultText(string(output)), nil
}

func (s *Server) handleDeleteReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("reminder_id", "")
	if id == "" {
		return mcp.NewToolResultError("reminder_id is required"), nil
	}

	if err := s.store.Delete(ctx, id); err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("delete reminder failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete reminder: %v", err)), nil
	}
	s.log.Info().Str("id", id).Msg("reminder deleted")

	return mcp.NewToolResultText(fmt.Sprintf("Reminder %s deleted.", id)), nil
}

func (s *Server) handleListsResource(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	lists, err := s.store.Lists(ctx)
	if err != nil {
		return nil, err
	}
	SortLists(lists)

	data, err := json.MarshalIndent(lists, "", "  ")
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      listsResourceURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
