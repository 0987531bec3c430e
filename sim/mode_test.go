package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBESSMode(t *testing.T) {
	for _, name := range ValidBESSModeNames() {
		m, err := ParseBESSMode(name)
		require.NoError(t, err)
		assert.Equal(t, name, m.String())
	}

	_, err := ParseBESSMode("experimental")
	assert.Error(t, err)
	_, err = ParseBESSMode("")
	assert.Error(t, err, "empty mode must not silently select a branch")
}

func TestBESSMode_SetRejectsTypoAndKeepsValue(t *testing.T) {
	m := ModeOff
	err := m.Set("of")
	assert.Error(t, err)
	assert.Equal(t, ModeOff, m)

	require.NoError(t, m.Set("share_scaled_damping"))
	assert.Equal(t, ModeShareScaledDamping, m)
	assert.Equal(t, "bessMode", m.Type())
}
