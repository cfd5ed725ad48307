package racegroup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFirstCompletedPicksFastest(t *testing.T) {
	slow := func(ctx context.Context) (bool, error) {
		select {
		case <-time.After(time.Second):
			return true, nil
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	fast := func(ctx context.Context) (bool, error) {
		return true, nil
	}

	result := FirstCompleted(context.Background(), []Worker{slow, fast})
	assert.Equal(t, 1, result.Index, "expected the fast worker (index 1) to win")
	assert.True(t, result.Triggered)
}

func TestFirstCompletedPropagatesError(t *testing.T) {
	failing := func(ctx context.Context) (bool, error) {
		return false, errors.New("boom")
	}
	result := FirstCompleted(context.Background(), []Worker{failing})
	assert.Error(t, result.Err)
}

func TestFirstCompletedCancelsLosers(t *testing.T) {
	cancelled := make(chan struct{}, 1)
	loser := func(ctx context.Context) (bool, error) {
		<-ctx.Done()
		cancelled <- struct{}{}
		return false, ctx.Err()
	}
	winner := func(ctx context.Context) (bool, error) {
		return true, nil
	}

	FirstCompleted(context.Background(), []Worker{loser, winner})

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Error("expected the losing worker to observe cancellation")
	}
}
