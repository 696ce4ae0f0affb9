package shell

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/dashpoultry/internal/statebus"
)

func TestShellFollowsNavigation(t *testing.T) {
	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	nav := statebus.NewNavigator(nil, func() time.Time { return at })
	sh := New(nav, nil)

	unsubscribe, err := sh.Attach()
	require.NoError(t, err)
	assert.Equal(t, "dashboard", sh.State().Active)

	require.NoError(t, sh.Open("feed_water", map[string]string{"batch_id": "B001"}))
	st := sh.State()
	assert.Equal(t, "feed_water", st.Active)
	assert.Equal(t, map[string]string{"batch_id": "B001"}, st.Context)
	assert.Equal(t, at, st.ChangedAt)
	assert.Equal(t, 1, st.Switches)

	err = sh.Open("eggs", map[string]string{"batch_id": "B002"})
	require.ErrorIs(t, err, ErrUnknownModule)
	assert.Equal(t, "feed_water", sh.State().Active)
	assert.Zero(t, nav.Failures())
	assert.Len(t, sh.History(), 1)
	_, found := nav.Context("eggs")
	assert.False(t, found)

	unsubscribe()
	require.NoError(t, sh.Open("workers", nil))
	assert.Equal(t, "feed_water", sh.State().Active)
}
