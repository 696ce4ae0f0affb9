package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	hashed, err := Hash("admin")
	require.NoError(t, err)
	assert.NotEqual(t, "admin", hashed)

	assert.NoError(t, Compare(hashed, "admin"))
	assert.Error(t, Compare(hashed, "Admin"))
	assert.Error(t, Compare("not-a-hash", "admin"))
}
