package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"backersync/domain/entities"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReport() *entities.SyncReport {
	backer := entities.Backer{ID: "1"}
	role := entities.Role{Name: "low-spec-casual"}

	report := &entities.SyncReport{RunID: "run-1", OrgName: "bazzite-eu", GuildID: "guild-1", Eligible: 2}
	report.Add(entities.Granted(backer, role, "bob", &entities.Member{UserID: "u-bob"}))
	report.Add(entities.Skipped(entities.SkipNoHandle, backer, role, "", nil))
	return report
}

func TestBuildRunMessage_Completed(t *testing.T) {
	msg := BuildRunMessage(testReport(), nil)

	assert.Equal(t, "Backer role sync completed (run run-1)", msg.Text)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "good", msg.Attachments[0].Color)

	values := map[string]string{}
	for _, f := range msg.Attachments[0].Fields {
		values[f.Title] = f.Value
	}
	assert.Equal(t, "bazzite-eu", values["Organization"])
	assert.Equal(t, "2", values["Eligible backers"])
	assert.Equal(t, "1", values["Granted"])
	assert.Equal(t, "1", values["Skipped"])
	assert.NotContains(t, values, "Error")
}

func TestBuildRunMessage_Aborted(t *testing.T) {
	msg := BuildRunMessage(nil, errors.New("guild not found"))

	assert.Equal(t, "danger", msg.Attachments[0].Color)
	last := msg.Attachments[0].Fields[len(msg.Attachments[0].Fields)-1]
	assert.Equal(t, "Error", last.Title)
	assert.Equal(t, "guild not found", last.Value)
}

func TestSlackNotifier_NotifyRun(t *testing.T) {
	var received slack.WebhookMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewSlackNotifier(server.URL)
	require.NoError(t, notifier.NotifyRun(context.Background(), testReport(), nil))
	assert.Equal(t, "Backer role sync completed (run run-1)", received.Text)
}

func TestSlackNotifier_NotifyRunError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	notifier := NewSlackNotifier(server.URL)
	assert.Error(t, notifier.NotifyRun(context.Background(), testReport(), nil))
}
