package outbox

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheus3301/wuzdash/internal/bus"
	"github.com/matheus3301/wuzdash/internal/gateway"
)

// tokenGateway answers /chat/send/text and records the token of each
// delivered text.
type tokenGateway struct {
	*httptest.Server
	down atomic.Bool

	mu        sync.Mutex
	delivered map[string]string // body -> token
}

func newTokenGateway(t *testing.T) *tokenGateway {
	t.Helper()
	g := &tokenGateway{delivered: map[string]string{}}
	r := chi.NewRouter()
	r.Post("/chat/send/text", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if g.down.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"code":503,"error":"gateway restarting"}`))
			return
		}
		var in struct{ Body string }
		_ = json.NewDecoder(req.Body).Decode(&in)
		g.mu.Lock()
		g.delivered[in.Body] = req.Header.Get("token")
		g.mu.Unlock()
		_, _ = w.Write([]byte(`{"code":200,"data":{"Details":"Sent"}}`))
	})
	g.Server = httptest.NewServer(r)
	t.Cleanup(g.Close)
	return g
}

func (g *tokenGateway) tokenFor(body string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.delivered[body]
}

func TestQueuedTextKeepsItsInstanceAcrossLogins(t *testing.T) {
	db := testDB(t)
	g := newTokenGateway(t)
	active := &activeToken{token: "tok-a"}
	client := gateway.New(g.URL, 2*time.Second, active, nil)
	s := NewSender(db, active, ClientRoute(client), bus.New(), nil)

	g.down.Store(true)
	_, err := s.Enqueue("5511", "from a")
	require.NoError(t, err)
	s.Drain(context.Background())

	pending, err := db.PendingOutbox()
	require.NoError(t, err)
	require.Len(t, pending, 1, "a transport failure keeps the entry queued")
	assert.Equal(t, "tok-a", pending[0].Token)

	// Another account takes over before the gateway recovers.
	active.token = "tok-b"
	_, err = s.Enqueue("5522", "from b")
	require.NoError(t, err)
	g.down.Store(false)
	s.Drain(context.Background())

	assert.Equal(t, "tok-a", g.tokenFor("from a"))
	assert.Equal(t, "tok-b", g.tokenFor("from b"))
}

func TestEnqueueRequiresActiveInstance(t *testing.T) {
	s := NewSender(testDB(t), &activeToken{}, (&mockSender{}).as, bus.New(), nil)
	_, err := s.Enqueue("5511", "hi")
	var verr *gateway.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "token", verr.Field)
}

func TestEntryWithoutTokenFails(t *testing.T) {
	db := testDB(t)
	mock := &mockSender{}
	s := newTestSender(db, mock, bus.New(), nil)
	require.NoError(t, db.QueueOutbox("legacy", "", "5511", "old"))

	s.Drain(context.Background())
	assert.Zero(t, mock.callCount())
	recent, err := db.RecentOutbox(1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "failed", recent[0].Status)
}

func TestAbandonFailsUndelivered(t *testing.T) {
	db := testDB(t)
	mock := &mockSender{}
	s := newTestSender(db, mock, bus.New(), nil)
	_, err := s.Enqueue("5511", "one")
	require.NoError(t, err)

	require.NoError(t, s.Abandon("logged out"))
	s.Drain(context.Background())

	assert.Zero(t, mock.callCount())
	recent, err := db.RecentOutbox(1)
	require.NoError(t, err)
	assert.Equal(t, "logged out", recent[0].ErrorMessage)
}
