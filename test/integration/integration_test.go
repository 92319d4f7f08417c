package integration_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rpggio/phishbox/internal/domain/email"
	"github.com/rpggio/phishbox/internal/domain/participation"
	"github.com/rpggio/phishbox/internal/domain/study"
	"github.com/rpggio/phishbox/internal/rpc"
	"github.com/rpggio/phishbox/internal/testserver"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	study  study.Study
	emails []email.Email
	keep   string
	report string
}

type exportedEvent struct {
	Event struct {
		ID   int64           `json:"id"`
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	} `json:"event"`
	EmailID string `json:"email_id"`
}

type exportedParticipation struct {
	Status  participation.Status `json:"status"`
	Sorted  int                  `json:"sorted"`
	Correct int                  `json:"correct"`
	Events  []exportedEvent      `json:"events"`
}

func newFixture(t *testing.T, ts *testserver.TestServer, timerMode string, minutes *int) fixture {
	t.Helper()

	var f fixture
	for i, subject := range []string{"Quarterly numbers", "Your account is locked"} {
		var e email.Email
		require.NoError(t, ts.Admin("email.add", rpc.EmailParams{
			SenderMail:           "sender@example.com",
			Subject:              subject,
			Body:                 "<p>hello</p>",
			BackofficeIdentifier: []string{"legit-1", "phish-1"}[i],
		}, &e))
		f.emails = append(f.emails, e)
	}

	require.NoError(t, ts.Admin("study.add", rpc.StudyParams{
		Name:              "Spring cohort",
		OpenParticipation: true,
		TimerMode:         timerMode,
		ExternalImageMode: "ASK",
		DurationInMinutes: minutes,
		Folders: []rpc.FolderParams{
			{Name: "Keep", Order: 0},
			{Name: "Report", Order: 1, IsPhishing: true},
		},
		Emails: []rpc.StudyEmailParams{
			{EmailID: f.emails[0].ID, Order: 0},
			{EmailID: f.emails[1].ID, Order: 1, IsPhishing: true},
		},
	}, &f.study))
	require.Len(t, f.study.Folders, 2)

	for _, folder := range f.study.Folders {
		if folder.IsPhishing {
			f.report = folder.ID
		} else {
			f.keep = folder.ID
		}
	}
	return f
}

func provisionOne(t *testing.T, ts *testserver.TestServer, studyID string) participation.Participation {
	t.Helper()
	var created []participation.Participation
	require.NoError(t, ts.Admin("study.provision", rpc.ProvisionParams{StudyID: studyID, Count: 1}, &created))
	require.Len(t, created, 1)
	return created[0]
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var rpcErr *testserver.RPCError
	require.True(t, errors.As(err, &rpcErr), "expected rpc error, got %v", err)
	require.NotNil(t, rpcErr.Data)
	require.Equal(t, code, rpcErr.Data.Code)
}

func TestIntegration_TimedParticipation(t *testing.T) {
	ts := testserver.New(t)
	minutes := 10
	f := newFixture(t, ts, "VISIBLE", &minutes)
	p := provisionOne(t, ts, f.study.ID)

	var view participation.View
	require.NoError(t, ts.Call("participation.resolveByCode", rpc.CodeParams{Code: p.Code}, &view))
	require.Equal(t, participation.StatusCodeUsed, view.Status)
	require.Len(t, view.Emails, 2)

	ts.Clock.Advance(time.Minute)
	var started participation.Participation
	require.NoError(t, ts.Call("participation.start", rpc.IDParams{ID: p.ID}, &started))
	require.NotNil(t, started.StartedAt)

	// One of two emails sorted and the timer still running.
	ts.Clock.Advance(2 * time.Minute)
	require.NoError(t, ts.Call("participation.moveEmail", rpc.MoveEmailParams{
		ID: p.ID, EmailID: f.emails[1].ID, FolderID: f.report,
	}, nil))
	err := ts.Call("participation.finish", rpc.IDParams{ID: p.ID}, nil)
	requireCode(t, err, rpc.CodePreconditionFailed)

	ts.Clock.Advance(8 * time.Minute)
	var finished participation.Participation
	require.NoError(t, ts.Call("participation.finish", rpc.IDParams{ID: p.ID}, &finished))
	require.NotNil(t, finished.FinishedAt)

	var out exportedParticipation
	require.NoError(t, ts.Admin("report.participation", rpc.ParticipationIDParams{ParticipationID: p.ID}, &out))
	require.Equal(t, participation.StatusFinished, out.Status)
	require.Equal(t, 1, out.Sorted)
	require.Equal(t, 1, out.Correct)
	require.Len(t, out.Events, 1)
	require.Equal(t, "email-moved", out.Events[0].Event.Type)
	require.Equal(t, f.emails[1].ID, out.Events[0].EmailID)

	// The mailbox is frozen once finished.
	err = ts.Call("participation.moveEmail", rpc.MoveEmailParams{
		ID: p.ID, EmailID: f.emails[0].ID, FolderID: f.keep,
	}, nil)
	requireCode(t, err, rpc.CodeInvalidState)
}

func TestIntegration_SortEverythingWithoutTimer(t *testing.T) {
	ts := testserver.New(t)
	f := newFixture(t, ts, "DISABLED", nil)
	p := provisionOne(t, ts, f.study.ID)

	err := ts.Call("participation.start", rpc.IDParams{ID: p.ID}, nil)
	requireCode(t, err, rpc.CodeInvalidState)

	require.NoError(t, ts.Call("participation.resolveByCode", rpc.CodeParams{Code: p.Code}, nil))
	require.NoError(t, ts.Call("participation.start", rpc.IDParams{ID: p.ID}, nil))

	err = ts.Call("participation.start", rpc.IDParams{ID: p.ID}, nil)
	requireCode(t, err, rpc.CodeInvalidState)

	move := func(emailID, folderID string) {
		require.NoError(t, ts.Call("participation.moveEmail", rpc.MoveEmailParams{
			ID: p.ID, EmailID: emailID, FolderID: folderID,
		}, nil))
	}
	move(f.emails[0].ID, f.report)
	move(f.emails[0].ID, f.report)
	move(f.emails[0].ID, f.keep)
	move(f.emails[1].ID, f.report)

	// Hours later the study still cannot time out.
	ts.Clock.Advance(3 * time.Hour)
	var view participation.View
	require.NoError(t, ts.Call("participation.get", rpc.CodeParams{Code: p.Code}, &view))
	require.False(t, view.Completed)

	require.NoError(t, ts.Call("participation.finish", rpc.IDParams{ID: p.ID}, nil))
	require.NoError(t, ts.Call("participation.finish", rpc.IDParams{ID: p.ID}, nil))

	var out exportedParticipation
	require.NoError(t, ts.Admin("report.participation", rpc.ParticipationIDParams{ParticipationID: p.ID}, &out))
	require.Equal(t, 2, out.Sorted)
	require.Equal(t, 2, out.Correct)
	require.Len(t, out.Events, 3)
	for _, ev := range out.Events {
		require.Equal(t, "email-moved", ev.Event.Type)
	}
}

func TestIntegration_LinkClicksAreRecordedOnce(t *testing.T) {
	ts := testserver.New(t)
	f := newFixture(t, ts, "DISABLED", nil)
	p := provisionOne(t, ts, f.study.ID)

	require.NoError(t, ts.Call("participation.resolveByCode", rpc.CodeParams{Code: p.Code}, nil))
	require.NoError(t, ts.Call("participation.clickStartLink", rpc.IDParams{ID: p.ID}, nil))
	ts.Clock.Advance(time.Minute)
	require.NoError(t, ts.Call("participation.clickStartLink", rpc.IDParams{ID: p.ID}, nil))

	// The end link only counts after finishing.
	require.NoError(t, ts.Call("participation.clickEndLink", rpc.IDParams{ID: p.ID}, nil))

	var view participation.View
	require.NoError(t, ts.Call("participation.get", rpc.CodeParams{Code: p.Code}, &view))
	require.NotNil(t, view.Participation.StartLinkClickedAt)
	require.True(t, view.Participation.StartLinkClickedAt.Equal(*view.Participation.CodeUsedAt))
	require.Nil(t, view.Participation.EndLinkClickedAt)
}

func TestIntegration_TrackBehaviour(t *testing.T) {
	ts := testserver.New(t)
	f := newFixture(t, ts, "DISABLED", nil)
	p := provisionOne(t, ts, f.study.ID)

	var view participation.View
	require.NoError(t, ts.Call("participation.resolveByCode", rpc.CodeParams{Code: p.Code}, &view))
	mailboxID := view.Emails[0].ID

	track := func(event string) error {
		return ts.Call("participationEvent.track", rpc.TrackParams{
			ParticipationID:      p.ID,
			ParticipationEmailID: mailboxID,
			Event:                json.RawMessage(event),
		}, nil)
	}

	require.NoError(t, track(`{"type":"email-view"}`))
	require.NoError(t, track(`{"type":"email-scrolled","scrollPosition":1.7}`))
	require.NoError(t, track(`{"type":"email-link-click","url":"https://example.com/login","linkText":"Log in"}`))

	requireCode(t, track(`{"type":"email-moved","toFolderId":"`+f.keep+`"}`), rpc.CodeInvalidInput)
	requireCode(t, track(`{"type":"email-link-hover","url":"not a url"}`), rpc.CodeInvalidInput)

	err := ts.Call("participationEvent.track", rpc.TrackParams{
		ParticipationID:      p.ID,
		ParticipationEmailID: "missing",
		Event:                json.RawMessage(`{"type":"email-view"}`),
	}, nil)
	requireCode(t, err, rpc.CodeNotFound)

	var out exportedParticipation
	require.NoError(t, ts.Admin("report.participation", rpc.ParticipationIDParams{ParticipationID: p.ID}, &out))
	require.Len(t, out.Events, 3)
	require.Equal(t, "email-view", out.Events[0].Event.Type)
	require.Equal(t, "email-scrolled", out.Events[1].Event.Type)

	var scrolled struct {
		ScrollPosition float64 `json:"scrollPosition"`
	}
	require.NoError(t, json.Unmarshal(out.Events[1].Event.Data, &scrolled))
	require.Equal(t, 1.0, scrolled.ScrollPosition)
}

func TestIntegration_OpenParticipationAndDelete(t *testing.T) {
	ts := testserver.New(t)
	f := newFixture(t, ts, "DISABLED", nil)

	var p participation.Participation
	require.NoError(t, ts.Call("participation.create", rpc.CodeParams{Code: f.study.Code}, &p))
	require.Nil(t, p.CodeUsedAt)

	err := ts.Call("participation.create", rpc.CodeParams{Code: "no-such-study"}, nil)
	requireCode(t, err, rpc.CodeNotFound)

	require.NoError(t, ts.Call("participation.resolveByCode", rpc.CodeParams{Code: p.Code}, nil))
	require.NoError(t, ts.Call("participation.start", rpc.IDParams{ID: p.ID}, nil))

	// Emails placed in a study cannot be removed.
	err = ts.Admin("email.delete", rpc.IDParams{ID: f.emails[0].ID}, nil)
	requireCode(t, err, rpc.CodeInUse)

	require.NoError(t, ts.Admin("study.delete", rpc.IDParams{ID: f.study.ID}, nil))

	err = ts.Call("participation.get", rpc.CodeParams{Code: p.Code}, nil)
	requireCode(t, err, rpc.CodeNotFound)

	var emails []email.Email
	require.NoError(t, ts.Admin("email.getAll", nil, &emails))
	require.Len(t, emails, 2)
	require.NoError(t, ts.Admin("email.delete", rpc.IDParams{ID: f.emails[0].ID}, nil))
}

func TestIntegration_AdminMethodsRequireToken(t *testing.T) {
	ts := testserver.New(t)

	err := ts.Call("study.getAll", nil, nil)
	requireCode(t, err, rpc.CodeUnauthorized)

	err = ts.Call("auth.login", map[string]string{"email": testserver.AdminEmail, "password": "wrong"}, nil)
	requireCode(t, err, rpc.CodeUnauthorized)

	var studies []study.StudySummary
	require.NoError(t, ts.Admin("study.getAll", nil, &studies))
	require.Empty(t, studies)
}
