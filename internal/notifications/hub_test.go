package notifications

import (
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/charlesng35/rasconsole/pkg/errors"
)

func TestHubDeliversToSubscribers(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(2)

	Successf(hub, "deleted %d", 3)
	got := <-ch
	require.Equal(t, LevelSuccess, got.Level)
	require.Equal(t, "deleted 3", got.Message)
	require.False(t, got.Time.IsZero())

	cancel()
	cancel()
	_, open := <-ch
	require.False(t, open)

	// No subscribers left; must not block.
	Infof(hub, "nobody listens")
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(1)
	defer cancel()

	Infof(hub, "first")
	Infof(hub, "second")
	require.Equal(t, "first", (<-ch).Message)
	require.Len(t, ch, 0)
}

func TestFailureUsesUserMessage(t *testing.T) {
	rec := &Recorder{}
	Failure(rec, apperrors.NewTransport(errTest("dial tcp: refused")))
	Failure(rec, apperrors.NewRemote(400, "Port is busy"))
	Failure(rec, nil)

	all := rec.All()
	require.Len(t, all, 2)
	require.Equal(t, apperrors.ErrTransport.Message, all[0].Message)
	require.Equal(t, "Port is busy", all[1].Message)
	last, ok := rec.Last()
	require.True(t, ok)
	require.Equal(t, LevelError, last.Level)
}

func TestNilNotifierIsIgnored(t *testing.T) {
	Warnf(nil, "ignored")
}

type errTest string

func (e errTest) Error() string { return string(e) }
