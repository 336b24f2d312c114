package dialog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFutureResolvesOnce(t *testing.T) {
	f, resolve := NewFuture()
	go resolve(Accepted)

	require.Equal(t, Accepted, f.Wait(context.Background()))
	resolve(Declined)
	require.Equal(t, Accepted, f.Wait(context.Background()))
}

func TestCancelledWaitDeclines(t *testing.T) {
	f, resolve := NewFuture()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	require.Equal(t, Declined, f.Wait(ctx))
	resolve(Accepted)
	require.Equal(t, Declined, f.Wait(context.Background()))

	var missing *Future
	require.Equal(t, Declined, missing.Wait(context.Background()))
}

func TestScriptedConfirmer(t *testing.T) {
	s := NewScripted(Accepted)
	ctx := context.Background()

	require.Equal(t, Accepted, s.Confirm(ctx, Prompt{Title: "one"}).Wait(ctx))
	require.Equal(t, Declined, s.Confirm(ctx, Prompt{Title: "two"}).Wait(ctx))
	require.Len(t, s.Prompts(), 2)
	require.Equal(t, "two", s.Prompts()[1].Title)
}
