package statebus

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
)

func TestNavigateDeliversRequest(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	nav := NewNavigator(nil, func() time.Time { return now })

	var got []models.NavigationRequest
	_, err := nav.OnNavigate(func(req models.NavigationRequest) error {
		got = append(got, req)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, nav.Navigate("mortality", map[string]string{"batch_id": "B001"}))

	require.Len(t, got, 1)
	require.Equal(t, "mortality", got[0].Module)
	require.Equal(t, "B001", got[0].Context["batch_id"])
	require.Equal(t, now, got[0].RequestedAt)

	ctx, ok := nav.Context("mortality")
	require.True(t, ok)
	require.Equal(t, "B001", ctx["batch_id"])
}

func TestNavigateRejectsEmptyModule(t *testing.T) {
	nav := NewNavigator(nil, nil)
	require.ErrorIs(t, nav.Navigate("", nil), ErrEmptyModule)
	require.Empty(t, nav.History())
}

func TestNavigationHistoryIsCapped(t *testing.T) {
	nav := NewNavigator(nil, nil)

	for i := 0; i < 15; i++ {
		require.NoError(t, nav.Navigate(fmt.Sprintf("module-%d", i), nil))
	}

	history := nav.History()
	require.Len(t, history, 10)
	require.Equal(t, "module-5", history[0].Module)
	require.Equal(t, "module-14", history[9].Module)

	_, ok := nav.LastContext("module-2")
	require.False(t, ok)
	last, ok := nav.LastContext("module-9")
	require.True(t, ok)
	require.Equal(t, "module-9", last.Module)
}

func TestNavigationHandlerFaultsAreIsolated(t *testing.T) {
	nav := NewNavigator(nil, nil)

	reached := false
	_, err := nav.OnNavigate(func(models.NavigationRequest) error { return errors.New("nope") })
	require.NoError(t, err)
	_, err = nav.OnNavigate(func(models.NavigationRequest) error { panic("bad") })
	require.NoError(t, err)
	_, err = nav.OnNavigate(func(models.NavigationRequest) error {
		reached = true
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, nav.Navigate("workers", nil))
	require.True(t, reached)
	require.Equal(t, 2, nav.Failures())
}

func TestClearContext(t *testing.T) {
	nav := NewNavigator(nil, nil)
	require.NoError(t, nav.Navigate("batches", map[string]string{"batch_id": "B001"}))
	require.NoError(t, nav.Navigate("workers", map[string]string{"worker_id": "W001"}))

	nav.ClearContext("batches")
	_, ok := nav.Context("batches")
	require.False(t, ok)
	_, ok = nav.Context("workers")
	require.True(t, ok)

	nav.ClearContext("")
	_, ok = nav.Context("workers")
	require.False(t, ok)
}
