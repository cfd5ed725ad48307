package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKdumpMetadata(t *testing.T) {
	k := NewKdump()
	assert.Equal(t, "kdump", k.Name())
	assert.False(t, k.Repeatable())
	assert.Empty(t, k.RequiredBinaries())
	assert.NoError(t, k.Configure(map[string]any{}))
}
