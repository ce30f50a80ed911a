package notification

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kadryhr/internal/core/id"
)

func TestRender_LeaveDecision(t *testing.T) {
	payload, err := json.Marshal(LeaveDecision{
		LeaveRequestID: id.New(),
		EmployeeName:   "Jan <Kowalski>",
		Email:          "jan@example.com",
		Status:         "approved",
		Category:       "paid",
		StartDate:      "2026-07-01",
		EndDate:        "2026-07-14",
	})
	require.NoError(t, err)

	msg, err := Render(KindLeaveDecision, payload)
	require.NoError(t, err)

	assert.Equal(t, "jan@example.com", msg.To)
	assert.Equal(t, "Wniosek urlopowy zaakceptowany", msg.Subject)
	assert.Contains(t, msg.Text, "2026-07-01 – 2026-07-14")
	assert.Contains(t, msg.HTML, "Jan &lt;Kowalski&gt;")
	assert.NotContains(t, msg.HTML, "<Kowalski>")
}

func TestRender_UnknownKind(t *testing.T) {
	_, err := Render("sms.reminder", []byte(`{}`))
	assert.Error(t, err)
}

func TestRender_BadPayload(t *testing.T) {
	_, err := Render(KindWelcome, []byte(`not json`))
	assert.Error(t, err)
}

func TestRender_WelcomeEscapesHTML(t *testing.T) {
	payload, err := json.Marshal(Welcome{
		Email:            "anna@acme.pl",
		DisplayName:      "Anna",
		OrganisationName: `Acme <script>alert(1)</script>`,
	})
	require.NoError(t, err)

	msg, err := Render(KindWelcome, payload)
	require.NoError(t, err)

	assert.Equal(t, "Witamy w KadryHR", msg.Subject)
	assert.Contains(t, msg.HTML, "<p>Cześć Anna,</p>")
	assert.Contains(t, msg.HTML, "&lt;script&gt;")
	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.Text, "Acme <script>")
}
