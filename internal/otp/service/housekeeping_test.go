package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/otpgate/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestHousekeeping_Cleanup(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	stale, err := h.svc.CreateChallenge(ctx, aliceEmail)
	require.NoError(t, err)

	h.clock.Advance(23 * time.Hour)
	fresh, err := h.svc.CreateChallenge(ctx, aliceEmail)
	require.NoError(t, err)

	h.clock.Advance(2 * time.Hour)
	hk := NewHousekeepingService(h.store, slogx.Discard(), time.Minute, 24*time.Hour)
	hk.Now = h.clock.Now

	require.Equal(t, int64(1), hk.Cleanup(ctx))

	_, err = h.store.Challenges().GetChallenge(ctx, stale.Challenge.ID)
	require.Error(t, err)
	_, err = h.store.Challenges().GetChallenge(ctx, fresh.Challenge.ID)
	require.NoError(t, err)
}

func TestHousekeeping_StartStop(t *testing.T) {
	h := newHarness(t)

	hk := NewHousekeepingService(h.store, slogx.Discard(), 0, 0)
	require.Equal(t, time.Hour, hk.Interval)
	require.Equal(t, 24*time.Hour, hk.Retention)

	hk.Start()
	hk.Stop()
}
