package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshal_InlinesType(t *testing.T) {
	data, err := Marshal(EmailLinkHover{URL: "https://evil.example/login", LinkText: "Log in"})
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"email-link-hover","url":"https://evil.example/login","linkText":"Log in"}`, string(data))

	data, err = Marshal(EmailView{})
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"email-view"}`, string(data))

	data, err = Marshal(EmailMoved{ToFolderID: "f2"})
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"email-moved","fromFolderId":null,"toFolderId":"f2"}`, string(data))
}

func TestUnmarshal(t *testing.T) {
	p, err := Unmarshal([]byte(`{"type":"email-scrolled","scrollPosition":0.5}`))
	require.NoError(t, err)
	require.Equal(t, EmailScrolled{ScrollPosition: 0.5}, p)

	_, err = Unmarshal([]byte(`{"type":"email-deleted"}`))
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = Unmarshal([]byte(`{}`))
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = Unmarshal([]byte(`nope`))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestEvent_MarshalJSON(t *testing.T) {
	ev := Event{ID: 7, ParticipationEmailID: "pe1", Payload: EmailView{}}
	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, "email-view", got["type"])
	require.Equal(t, map[string]any{"type": "email-view"}, got["data"])
}

func TestNormalize_Clamp(t *testing.T) {
	p, err := Normalize(EmailScrolled{ScrollPosition: -0.2})
	require.NoError(t, err)
	require.Equal(t, EmailScrolled{ScrollPosition: 0}, p)
}
