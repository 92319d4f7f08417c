package testserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rpggio/phishbox/internal/auth"
	"github.com/rpggio/phishbox/internal/domain/email"
	"github.com/rpggio/phishbox/internal/domain/event"
	"github.com/rpggio/phishbox/internal/domain/participation"
	"github.com/rpggio/phishbox/internal/domain/report"
	"github.com/rpggio/phishbox/internal/domain/study"
	"github.com/rpggio/phishbox/internal/domain/user"
	"github.com/rpggio/phishbox/internal/rpc"
	"github.com/rpggio/phishbox/internal/sqlite"
	"github.com/rpggio/phishbox/internal/transport"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	AdminEmail    = "admin@example.com"
	AdminPassword = "correct horse battery"
)

// Clock is a settable time source shared by every service of a TestServer.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type TestServer struct {
	Server *httptest.Server
	DB     *sqlite.DB
	Clock  *Clock
	Token  string
}

// RPCError is the error member of a JSON-RPC response.
type RPCError struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Data    *rpc.APIError `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("%s: %s", e.Data.Code, e.Message)
	}
	return e.Message
}

// New starts an HTTP server over a fresh in-memory database, with a
// bootstrap admin whose token is stored in Token.
func New(t *testing.T) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	clock := &Clock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}

	issuer, err := auth.NewIssuer("integration-secret", time.Hour)
	require.NoError(t, err)

	studyRepo := sqlite.NewStudyRepository(db)
	participationRepo := sqlite.NewParticipationRepository(db)
	eventRepo := sqlite.NewEventRepository(db)

	eventSvc := event.NewService(eventRepo, nil).WithClock(clock.Now)
	userSvc := user.NewService(sqlite.NewUserRepository(db), issuer.Sign, nil).WithCost(bcrypt.MinCost)
	handler := rpc.NewHandler(rpc.Services{
		Participations: participation.NewService(participationRepo, studyRepo, eventSvc, db, nil).WithClock(clock.Now),
		Events:         eventSvc,
		Studies:        study.NewService(studyRepo, db, nil),
		Emails:         email.NewService(sqlite.NewEmailRepository(db), nil),
		Users:          userSvc,
		Reports:        report.NewService(studyRepo, participationRepo, eventRepo, nil).WithClock(clock.Now),
	}, nil)

	server := httptest.NewServer(transport.NewServer(handler, transport.Options{
		AuthMiddleware: transport.AuthMiddleware(issuer),
	}))

	ts := &TestServer{Server: server, DB: db, Clock: clock}
	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	_, err = userSvc.EnsureAdmin(context.Background(), AdminEmail, AdminPassword)
	require.NoError(t, err)

	var login user.LoginResult
	require.NoError(t, ts.Call("auth.login", map[string]string{"email": AdminEmail, "password": AdminPassword}, &login))
	ts.Token = login.Token

	return ts
}

// Call invokes a public method anonymously.
func (ts *TestServer) Call(method string, params, out any) error {
	return ts.call("", method, params, out)
}

// Admin invokes a method with the admin token.
func (ts *TestServer) Admin(method string, params, out any) error {
	return ts.call(ts.Token, method, params, out)
}

func (ts *TestServer) call(token, method string, params, out any) error {
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Server.Client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *RPCError       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return err
	}
	if envelope.Error != nil {
		return envelope.Error
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(envelope.Result, out)
}
