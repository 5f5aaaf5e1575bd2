package eventhandler

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coffee-roulette/roulette-hub/internal/domain/notification"
	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
	"github.com/coffee-roulette/roulette-hub/internal/domain/shared"
)

type captureNotifier struct {
	mu      sync.Mutex
	sent    []notification.Message
	failFor int64
}

func (n *captureNotifier) Send(_ context.Context, msg notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if msg.Recipient != nil && msg.Recipient.UserID == n.failFor {
		return errors.New("mailbox full")
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *captureNotifier) byUser() map[int64]notification.Message {
	out := make(map[int64]notification.Message)
	for _, m := range n.sent {
		if m.Recipient != nil {
			out[m.Recipient.UserID] = m
		}
	}
	return out
}

type usersByID struct {
	roulette.UserRepository
	users []roulette.User
}

func (u usersByID) GetByIDs(_ context.Context, ids []roulette.UserID) ([]roulette.User, error) {
	want := make(map[roulette.UserID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []roulette.User
	for _, usr := range u.users {
		if want[usr.ID] {
			out = append(out, usr)
		}
	}
	return out, nil
}

// remote mimics an event that arrived over the bus: only the payload survives.
type remote struct {
	eventType shared.EventType
	payload   map[string]interface{}
}

func (r remote) EventType() shared.EventType     { return r.eventType }
func (r remote) OccurredAt() time.Time           { return time.Time{} }
func (r remote) AggregateID() string             { return "" }
func (r remote) Payload() map[string]interface{} { return r.payload }

func asRemote(t *testing.T, e shared.Event) remote {
	t.Helper()
	raw, err := json.Marshal(e.Payload())
	require.NoError(t, err)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &payload))
	return remote{eventType: e.EventType(), payload: payload}
}

var coffee = time.Date(2024, 6, 14, 18, 0, 0, 0, time.UTC)

func TestOnRouletteCreated_Announces(t *testing.T) {
	n := &captureNotifier{}
	h := NewOnRouletteCreatedHandler(n, nil, DefaultNotifyConfig())

	err := h.Handle(shared.NewRouletteCreatedEvent(5, coffee.Add(-72*time.Hour), coffee))
	require.NoError(t, err)

	require.Len(t, n.sent, 1)
	assert.Equal(t, notification.KindRouletteAnnouncement, n.sent[0].Kind)
	assert.Nil(t, n.sent[0].Recipient)
	assert.Equal(t, int64(5), n.sent[0].RouletteID)
	assert.Contains(t, n.sent[0].Text, "Fri, 14 Jun 2024 18:00 UTC")
}

func TestOnRouletteCreated_IgnoresOtherEvents(t *testing.T) {
	n := &captureNotifier{}
	h := NewOnRouletteCreatedHandler(n, nil, DefaultNotifyConfig())

	require.NoError(t, h.Handle(shared.NewUserRegisteredEvent(1, "a", "a@example.com")))
	assert.Empty(t, n.sent)
}

func TestOnMatchingsFinalized_NotifiesEveryMember(t *testing.T) {
	users := usersByID{users: []roulette.User{
		{ID: 1, Name: "Ann"}, {ID: 2, Name: "Bob"}, {ID: 3, Name: "Cid"}, {ID: 4, Name: "Dee"},
	}}
	n := &captureNotifier{}
	h := NewOnMatchingsFinalizedHandler(users, n, nil, DefaultNotifyConfig())

	event := shared.NewMatchingsFinalizedEvent(9, coffee, map[string][]int64{
		"a": {1, 2, 3},
		"b": {4},
	})

	for name, e := range map[string]shared.Event{"typed": event, "remote": asRemote(t, event)} {
		t.Run(name, func(t *testing.T) {
			n.sent = nil
			require.NoError(t, h.Handle(e))

			got := n.byUser()
			require.Len(t, got, 4)
			assert.Equal(t, notification.KindCoffeePartners, got[1].Kind)
			assert.Contains(t, got[1].Text, "Bob, Cid")
			assert.Contains(t, got[3].Text, "Ann, Bob")
			assert.Equal(t, notification.KindNoPartner, got[4].Kind)
		})
	}
}

func TestOnMatchingsFinalized_ContinuesAfterFailure(t *testing.T) {
	users := usersByID{users: []roulette.User{{ID: 1, Name: "Ann"}, {ID: 2, Name: "Bob"}}}
	n := &captureNotifier{failFor: 1}
	h := NewOnMatchingsFinalizedHandler(users, n, nil, DefaultNotifyConfig())

	err := h.Handle(shared.NewMatchingsFinalizedEvent(9, coffee, map[string][]int64{"g": {1, 2}}))
	assert.Error(t, err)

	got := n.byUser()
	assert.Len(t, got, 1)
	assert.Contains(t, got[2].Text, "Ann")
}
