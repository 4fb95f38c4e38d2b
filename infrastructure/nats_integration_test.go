package infrastructure

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"backersync/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupNATS starts a JetStream enabled NATS container and returns its URL
func setupNATS(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "nats:2.10-alpine",
			Cmd:          []string{"-js"},
			ExposedPorts: []string{"4222/tcp"},
			WaitingFor:   wait.ForLog("Server is ready").WithStartupTimeout(60 * time.Second),
			Labels: map[string]string{
				"test":      "backersync-infrastructure",
				"test-name": t.Name(),
				"cleanup":   "auto",
			},
		},
		Started: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Warning: Failed to terminate test container: %v", err)
		}
	})

	endpoint, err := container.PortEndpoint(ctx, "4222/tcp", "nats")
	require.NoError(t, err)
	return endpoint
}

func TestNATSEventPublisher_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	url := setupNATS(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := NewNATSClient(url)
	require.NoError(t, client.Connect(ctx))
	defer client.Close()

	mapper := NewEventSubjectMapper()
	require.NoError(t, client.EnsureStream(SyncEventStream, mapper.GetAllSubjects()))
	// A second call finds the existing stream
	require.NoError(t, client.EnsureStream(SyncEventStream, mapper.GetAllSubjects()))

	sub, err := client.nc.SubscribeSync("backersync.>")
	require.NoError(t, err)
	defer sub.Unsubscribe()

	publisher := NewNATSEventPublisher(client, mapper)
	event := events.BackerSkippedEvent{
		RunID:    "run-1",
		GuildID:  "guild-1",
		BackerID: "7",
		Tier:     "Low-Spec Casual",
		Reason:   "member_not_found",
		Username: "ghost",
	}
	require.NoError(t, publisher.Publish(event))

	msg, err := sub.NextMsg(5 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "backersync.backer_skipped", msg.Subject)

	var envelope EventEnvelope
	require.NoError(t, json.Unmarshal(msg.Data, &envelope))
	assert.Equal(t, "backer_skipped", envelope.EventType)

	var payload events.BackerSkippedEvent
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, event, payload)

	info, err := client.js.StreamInfo(SyncEventStream)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), info.State.Msgs)
}
