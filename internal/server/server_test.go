package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildr-dev/buildr/internal/collab"
	"github.com/buildr-dev/buildr/internal/types"
)

func startTestServer(t *testing.T, opts Options) (*SyncServer, *httptest.Server) {
	t.Helper()
	s := New(opts)
	mux := http.NewServeMux()
	mux.HandleFunc("/sync", s.handleSync)

	ts := httptest.NewServer(mux)
	t.Cleanup(func() {
		_ = s.Shutdown(context.Background())
		ts.Close()
	})
	return s, ts
}

func TestAllowedOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"no restriction", nil, "http://anywhere.test", true},
		{"empty origin always passes", []string{"http://app.test"}, "", true},
		{"exact match", []string{"http://app.test"}, "http://app.test", true},
		{"wildcard", []string{"*"}, "http://anywhere.test", true},
		{"mismatch", []string{"http://app.test"}, "http://evil.test", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Options{AllowedOrigins: tt.allowed})
			assert.Equal(t, tt.want, s.allowedOrigin(tt.origin))
		})
	}
}

func TestHandleSync_MissingRoom(t *testing.T) {
	_, ts := startTestServer(t, Options{})

	resp, err := http.Get(ts.URL + "/sync")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleSync_DisallowedOrigin(t *testing.T) {
	_, ts := startTestServer(t, Options{AllowedOrigins: []string{"http://app.test"}})

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/sync?room=r1", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://evil.test")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRoom_RelayDuringRemove(t *testing.T) {
	rm := &room{name: "room-1", clients: make(map[*client]bool)}

	churn := make([]*client, 256)
	for i := range churn {
		cl := &client{send: make(chan []byte, 1), done: make(chan struct{})}
		churn[i] = cl
		rm.clients[cl] = true
	}
	sender := &client{send: make(chan []byte, 1), done: make(chan struct{})}
	rm.clients[sender] = true

	// Relay concurrently with member removal: a relayer may hold a snapshot
	// containing a client that has since been removed, and sending to it must
	// never panic.
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					rm.relay(sender, []byte("frame"))
				}
			}
		}()
	}

	for _, cl := range churn {
		rm.remove(cl)
		rm.remove(cl) // removal is idempotent
	}
	close(stop)
	wg.Wait()

	assert.Equal(t, 1, rm.count())
	assert.True(t, rm.remove(sender))
}

func TestSyncServer_RelaysWithinRoom(t *testing.T) {
	_, ts := startTestServer(t, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sender, err := collab.DialChannel(ctx, ts.URL, "room-1", nil)
	require.NoError(t, err)
	defer sender.Close()

	receiver, err := collab.DialChannel(ctx, ts.URL, "room-1", nil)
	require.NoError(t, err)
	defer receiver.Close()

	var mutex sync.Mutex
	var got []collab.Envelope
	receiver.Subscribe(func(env collab.Envelope) {
		mutex.Lock()
		got = append(got, env)
		mutex.Unlock()
	})

	// Let the server register both members before publishing.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, sender.Publish(collab.Envelope{Type: collab.KindUpdate, ClientID: "peer-1", Data: "aGVsbG8="}))

	require.Eventually(t, func() bool {
		mutex.Lock()
		defer mutex.Unlock()
		return len(got) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mutex.Lock()
	defer mutex.Unlock()
	assert.Equal(t, collab.KindUpdate, got[0].Type)
	assert.Equal(t, "peer-1", got[0].ClientID)
	assert.Equal(t, "aGVsbG8=", got[0].Data)
}

func TestSyncServer_SenderDoesNotEcho(t *testing.T) {
	_, ts := startTestServer(t, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sender, err := collab.DialChannel(ctx, ts.URL, "room-1", nil)
	require.NoError(t, err)
	defer sender.Close()

	var mutex sync.Mutex
	var echoes int
	sender.Subscribe(func(collab.Envelope) {
		mutex.Lock()
		echoes++
		mutex.Unlock()
	})

	require.NoError(t, sender.Publish(collab.Envelope{Type: collab.KindUpdate, ClientID: "peer-1"}))
	time.Sleep(150 * time.Millisecond)

	mutex.Lock()
	defer mutex.Unlock()
	assert.Equal(t, 0, echoes)
}

func TestSyncServer_RoomsAreIsolated(t *testing.T) {
	_, ts := startTestServer(t, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sender, err := collab.DialChannel(ctx, ts.URL, "room-1", nil)
	require.NoError(t, err)
	defer sender.Close()

	other, err := collab.DialChannel(ctx, ts.URL, "room-2", nil)
	require.NoError(t, err)
	defer other.Close()

	var mutex sync.Mutex
	var got int
	other.Subscribe(func(collab.Envelope) {
		mutex.Lock()
		got++
		mutex.Unlock()
	})

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, sender.Publish(collab.Envelope{Type: collab.KindUpdate, ClientID: "peer-1"}))
	time.Sleep(150 * time.Millisecond)

	mutex.Lock()
	defer mutex.Unlock()
	assert.Equal(t, 0, got)
}

func TestSyncServer_EndToEndSessions(t *testing.T) {
	_, ts := startTestServer(t, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	newSession := func(nodeID string) (*collab.Store, *collab.Adapter) {
		store := collab.NewStore(nodeID)
		awareness := collab.NewAwareness(nodeID, collab.AnonymousUser(nodeID))
		channel, err := collab.DialChannel(ctx, ts.URL, "project-1", nil)
		require.NoError(t, err)
		adapter := collab.NewAdapter(store, awareness, channel, "project-1", collab.AdapterOptions{
			DocDebounce:       10 * time.Millisecond,
			AwarenessDebounce: 5 * time.Millisecond,
		})
		t.Cleanup(func() { _ = adapter.Close() })
		return store, adapter
	}

	storeA, _ := newSession("node-a")
	storeB, _ := newSession("node-b")

	storeA.AddComponent(types.Component{ID: "c1", Type: "hero"})

	require.Eventually(t, func() bool {
		return len(storeB.Components()) == 1
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, "c1", storeB.Components()[0].ID)
}
