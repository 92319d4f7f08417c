package mcp

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/phishbox/internal/auth"
	"github.com/rpggio/phishbox/internal/domain/event"
	"github.com/rpggio/phishbox/internal/domain/report"
	"github.com/rpggio/phishbox/internal/domain/study"
	"github.com/stretchr/testify/require"
)

type studyStub struct{}

func (studyStub) List(context.Context) ([]study.StudySummary, error) {
	return []study.StudySummary{{ID: "s1", Name: "Pilot", Code: "77", ParticipationCount: 3}}, nil
}

type reportStub struct{}

func (reportStub) Study(_ context.Context, id string) (*report.StudyReport, error) {
	if id != "s1" {
		return nil, report.ErrStudyNotFound
	}
	return &report.StudyReport{StudyID: "s1", StudyName: "Pilot"}, nil
}

func (reportStub) Events(_ context.Context, id string) ([]event.Record, error) {
	if id != "p1" {
		return nil, report.ErrParticipationNotFound
	}
	return []event.Record{{
		Event:           event.Event{ID: 1, ParticipationEmailID: "pe1", CreatedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), Payload: event.EmailView{}},
		ParticipationID: "p1",
		EmailID:         "e1",
	}}, nil
}

func connect(t *testing.T, cfg Config) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := NewServer(cfg)
	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func textOf(t *testing.T, res *sdkmcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestServer_Tools(t *testing.T) {
	ctx := context.Background()
	session := connect(t, Config{
		Services:      Services{Studies: studyStub{}, Reports: reportStub{}},
		TransportMode: "stdio",
	})

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	names := map[string]bool{}
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	for _, name := range []string{"list_studies", "study_report", "participation_events"} {
		require.True(t, names[name], "missing tool %s", name)
	}

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "list_studies"})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Contains(t, textOf(t, res), `"code": "77"`)

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "participation_events",
		Arguments: map[string]any{"participation_id": "p1"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Contains(t, textOf(t, res), `"type": "email-view"`)

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "study_report",
		Arguments: map[string]any{"study_id": "missing"},
	})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, textOf(t, res), "list_studies")
}

func TestServer_DocResources(t *testing.T) {
	ctx := context.Background()
	session := connect(t, Config{
		Services:      Services{Studies: studyStub{}, Reports: reportStub{}},
		TransportMode: "stdio",
	})

	res, err := session.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "phishbox://docs/events"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	require.Contains(t, res.Contents[0].Text, "email-moved")
}

type verifierStub struct{}

func (verifierStub) Parse(token string) (*auth.Principal, error) {
	if token != "good" {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Principal{UserID: "u1"}, nil
}

func TestAuthMiddleware(t *testing.T) {
	var seen *auth.Principal
	next := func(ctx context.Context, _ string, _ sdkmcp.Request) (sdkmcp.Result, error) {
		seen, _ = auth.PrincipalFromContext(ctx)
		return &sdkmcp.CallToolResult{}, nil
	}
	handler := authMiddleware(verifierStub{})(next)

	request := func(header string) sdkmcp.Request {
		h := http.Header{}
		if header != "" {
			h.Set("Authorization", header)
		}
		return &sdkmcp.CallToolRequest{Extra: &sdkmcp.RequestExtra{Header: h}}
	}

	_, err := handler(context.Background(), "tools/call", request("Bearer good"))
	require.NoError(t, err)
	require.Equal(t, "u1", seen.UserID)

	_, err = handler(context.Background(), "tools/call", request(""))
	require.ErrorContains(t, err, "unauthorized")

	_, err = handler(context.Background(), "tools/call", request("Bearer bad"))
	require.True(t, errors.Is(err, auth.ErrInvalidToken))

	seen = nil
	_, err = handler(context.Background(), "initialize", request(""))
	require.NoError(t, err)
	require.Nil(t, seen)
}
