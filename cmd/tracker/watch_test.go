package main

import (
	"context"
	"testing"

	"legal-fee-tracker-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObserver struct {
	fn           func(models.Session)
	unsubscribed bool
}

func (f *fakeObserver) Subscribe(fn func(models.Session)) func() {
	f.fn = fn
	return func() { f.unsubscribed = true }
}

func TestCancelOnSessionEnd(t *testing.T) {
	obs := &fakeObserver{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	unsubscribe := cancelOnSessionEnd(obs, cancel)
	require.NotNil(t, obs.fn)

	obs.fn(models.Session{State: models.StateAuthenticated, Principal: "p1", Role: models.RoleLawyer})
	assert.NoError(t, ctx.Err(), "role changes keep the watch running")

	obs.fn(models.Session{State: models.StateUnauthenticated})
	assert.ErrorIs(t, ctx.Err(), context.Canceled)

	unsubscribe()
	assert.True(t, obs.unsubscribed)
}
