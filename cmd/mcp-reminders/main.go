// Command mcp-reminders provides an MCP server for Apple Reminders.
//
// The server exposes tools for listing, creating, updating, completing and
// deleting reminders. On macOS it talks to the native Reminders store; a
// CalDAV (iCloud) backend and a local SQLite backend cover other hosts.
//
// Usage:
//
//	./mcp-reminders          # Start MCP server (stdio)
//	./mcp-reminders --help   # Show help
//
// Environment:
//
//	MCP_REMINDERS_CONFIG   Path to config file (default: ~/.mcp-reminders/config.yaml)
//	MCP_REMINDERS_BACKEND  Store backend: eventkit, caldav or sqlite
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/pongsapakl/mcp-reminders/internal/config"
	"github.com/pongsapakl/mcp-reminders/internal/reminder"
	"github.com/pongsapakl/mcp-reminders/internal/reminder/caldav"
	"github.com/pongsapakl/mcp-reminders/internal/reminder/eventkit"
	"github.com/pongsapakl/mcp-reminders/internal/reminder/sqlite"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--help", "-h":
			printHelp()
			return
		}
	}

	// stdout carries the MCP wire protocol; all logging goes to stderr.
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	// Load .env if present (useful for CalDAV credentials)
	_ = godotenv.Load()

	configPath := os.Getenv("MCP_REMINDERS_CONFIG")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger = logger.Level(level)

	store, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open reminders store")
	}
	defer store.Close()

	s := reminder.NewServer(store, logger)

	logger.Info().Str("backend", cfg.Backend).Msg("starting mcp-reminders server")
	if err := server.ServeStdio(s.MCPServer()); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

func openStore(cfg *config.Config, logger zerolog.Logger) (reminder.Store, error) {
	switch cfg.Backend {
	case config.BackendEventKit:
		return eventkit.NewStore(logger), nil
	case config.BackendCalDAV:
		return caldav.NewStore(caldav.Config{
			URL:         cfg.CalDAV.URL,
			Username:    cfg.CalDAV.Username,
			Password:    cfg.CalDAV.Password,
			DefaultList: cfg.DefaultList,
		}, logger)
	case config.BackendSQLite:
		return sqlite.NewStore(cfg.SQLite.Path, cfg.DefaultList, logger)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func printHelp() {
	fmt.Println(`MCP Reminders Server - Apple Reminders via MCP protocol

USAGE:
    mcp-reminders          Start MCP server (communicates via stdio)
    mcp-reminders --help   Show this help

ENVIRONMENT:
    MCP_REMINDERS_CONFIG           Path to YAML config file
                                   Default: ~/.mcp-reminders/config.yaml
    MCP_REMINDERS_BACKEND          Store backend: eventkit (macOS native,
                                   default), caldav (iCloud) or sqlite (local)
    MCP_REMINDERS_LOG_LEVEL        Log level: debug, info, warn, error
    MCP_REMINDERS_DEFAULT_LIST     List used when list_name is omitted
                                   (caldav and sqlite backends)
    MCP_REMINDERS_CALDAV_URL       CalDAV endpoint (default: iCloud)
    MCP_REMINDERS_CALDAV_USERNAME  CalDAV account (Apple ID)
    MCP_REMINDERS_CALDAV_PASSWORD  App-specific password
    MCP_REMINDERS_SQLITE_PATH      SQLite database file
                                   Default: ~/.mcp-reminders/reminders.db

TOOLS:
    list_reminder_lists  List all available reminder lists
    list_reminders       List reminders (date range, list, completion filters)
    create_reminder      Create a reminder (title, due_date, notes, priority, list_name)
    update_reminder      Update reminder fields; omitted fields stay unchanged
    complete_reminder    Mark a reminder as completed
    delete_reminder      Delete a reminder permanently

RESOURCES:
    reminders://lists    Reminder lists as JSON

CONFIGURATION:
    Add to your MCP client config (e.g. claude_desktop_config.json):
    {
      "mcpServers": {
        "reminders": {
          "command": "/path/to/mcp-reminders",
          "args": []
        }
      }
    }

    The first native-store operation triggers the macOS consent dialog;
    grant access under System Settings > Privacy & Security > Automation.`)
}
