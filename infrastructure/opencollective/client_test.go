package opencollective

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"backersync/config"
	"backersync/domain/entities"
	"backersync/domain/testhelpers"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const membersFixture = `[
  {"MemberId": 1, "role": "ADMIN", "tier": null, "name": "Org Admin", "description": "discord: @admin"},
  {"MemberId": 2, "role": "BACKER", "tier": "Low-Spec Casual", "name": "Alice", "description": "discord: @alice"},
  {"MemberId": 3, "role": "BACKER", "tier": "Unknown Tier", "name": "Bob", "description": "discord: @bob"},
  {"MemberId": 4, "role": "BACKER", "tier": "Root-Access Legend", "name": "Carol", "description": null},
  {"MemberId": 5, "role": "BACKER", "name": "Dave", "description": "discord: @dave"},
  {"MemberId": 6, "role": "BACKER", "tier": "Root-Access Legend", "name": "Erin", "description": "I love this project! discord: @Cool_User99"},
  {"MemberId": 7, "role": "FOLLOWER", "tier": "Low-Spec Casual", "name": "Frank", "description": "discord: @frank"},
  {"id": "abc", "role": "backer", "tier": "Low-Spec Casual", "name": "Gus", "description": ""}
]`

func strPtr(s string) *string { return &s }

func newTestServer(t *testing.T, hits *int32, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "/bazzite-eu/members.json", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		assert.Equal(t, "0", r.URL.Query().Get("offset"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClient_FetchBackers_Filters(t *testing.T) {
	var hits int32
	server := newTestServer(t, &hits, http.StatusOK, membersFixture)

	client := NewClient(server.URL, 5*time.Second, config.DefaultTierRoles(), nil)
	backers, err := client.FetchBackers(context.Background(), "bazzite-eu")
	require.NoError(t, err)

	want := []entities.Backer{
		{ID: "2", Role: "BACKER", Name: "Alice", Tier: strPtr("Low-Spec Casual"), Description: strPtr("discord: @alice")},
		{ID: "6", Role: "BACKER", Name: "Erin", Tier: strPtr("Root-Access Legend"), Description: strPtr("I love this project! discord: @Cool_User99")},
		{ID: "abc", Role: "backer", Name: "Gus", Tier: strPtr("Low-Spec Casual"), Description: strPtr("")},
	}
	if diff := cmp.Diff(want, backers); diff != "" {
		t.Errorf("FetchBackers() mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_FetchBackers_Memoized(t *testing.T) {
	var hits int32
	server := newTestServer(t, &hits, http.StatusOK, membersFixture)

	metrics := new(testhelpers.MockSyncMetrics)
	metrics.On("RecordBackersFetched", 3).Return()

	client := NewClient(server.URL, 5*time.Second, config.DefaultTierRoles(), metrics)

	first, err := client.FetchBackers(context.Background(), "bazzite-eu")
	require.NoError(t, err)
	second, err := client.FetchBackers(context.Background(), "bazzite-eu")
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, first, second)
	metrics.AssertNumberOfCalls(t, "RecordBackersFetched", 1)
}

func TestClient_FetchBackers_ConcurrentCallsShareOneRequest(t *testing.T) {
	var hits int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-release
		_, _ = w.Write([]byte(membersFixture))
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, 5*time.Second, config.DefaultTierRoles(), nil)

	var wg sync.WaitGroup
	results := make([][]entities.Backer, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			backers, err := client.FetchBackers(context.Background(), "bazzite-eu")
			assert.NoError(t, err)
			results[i] = backers
		}(i)
	}

	// Give every goroutine a chance to join the in-flight request
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	for _, r := range results {
		assert.Len(t, r, 3)
	}
}

func TestClient_FetchBackers_KeyedByOrg(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, 5*time.Second, config.DefaultTierRoles(), nil)

	_, err := client.FetchBackers(context.Background(), "org-a")
	require.NoError(t, err)
	_, err = client.FetchBackers(context.Background(), "org-b")
	require.NoError(t, err)
	_, err = client.FetchBackers(context.Background(), "org-a")
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestClient_FetchBackers_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"boom"}`},
		{name: "not found", status: http.StatusNotFound, body: `Not Found`},
		{name: "malformed json", status: http.StatusOK, body: `[{"role": "BACKER",`},
		{name: "object instead of array", status: http.StatusOK, body: `{"role": "BACKER"}`},
		{name: "invalid id", status: http.StatusOK, body: `[{"id": {"nested": true}, "role": "BACKER"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits int32
			server := newTestServer(t, &hits, tt.status, tt.body)

			metrics := new(testhelpers.MockSyncMetrics)
			client := NewClient(server.URL, 5*time.Second, config.DefaultTierRoles(), metrics)

			backers, err := client.FetchBackers(context.Background(), "bazzite-eu")
			assert.Error(t, err)
			assert.Nil(t, backers)

			// Failures are not memoized
			_, err = client.FetchBackers(context.Background(), "bazzite-eu")
			assert.Error(t, err)
			assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
			metrics.AssertNotCalled(t, "RecordBackersFetched", mock.Anything)
		})
	}
}

func TestClient_FetchBackers_UsesInjectedTierMap(t *testing.T) {
	var hits int32
	server := newTestServer(t, &hits, http.StatusOK, membersFixture)

	tierMap := new(testhelpers.MockTierRoleMap)
	tierMap.On("Contains", "Unknown Tier").Return(true)
	tierMap.On("Contains", mock.Anything).Return(false)

	client := NewClient(server.URL, 5*time.Second, tierMap, nil)
	backers, err := client.FetchBackers(context.Background(), "bazzite-eu")
	require.NoError(t, err)

	require.Len(t, backers, 1)
	assert.Equal(t, "3", backers[0].ID)
}

func TestOpaqueID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input string
		want  OpaqueID
	}{
		{input: `"abc"`, want: "abc"},
		{input: `12345`, want: "12345"},
		{input: `null`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var id OpaqueID
			require.NoError(t, id.UnmarshalJSON([]byte(tt.input)))
			assert.Equal(t, tt.want, id)
		})
	}
}
