package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/phishbox/internal/domain/event"
	"github.com/rpggio/phishbox/internal/domain/report"
	"github.com/rpggio/phishbox/internal/domain/study"
)

// StudyService defines study operations needed by MCP.
type StudyService interface {
	List(ctx context.Context) ([]study.StudySummary, error)
}

// ReportService defines export operations needed by MCP.
type ReportService interface {
	Study(ctx context.Context, studyID string) (*report.StudyReport, error)
	Events(ctx context.Context, participationID string) ([]event.Record, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Studies StudyService
	Reports ReportService
}

// Config contains server configuration.
type Config struct {
	Services      Services
	Verifier      TokenVerifier
	AuthEnabled   bool
	TransportMode string // "stdio" or "http"
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "phishbox",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio is a local operator session and never authenticates
	if cfg.TransportMode != "stdio" && cfg.AuthEnabled {
		server.AddReceivingMiddleware(authMiddleware(cfg.Verifier))
	} else {
		server.AddReceivingMiddleware(noAuthMiddleware())
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Services)

	return server
}
