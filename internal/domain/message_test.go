package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-tutor/internal/domain"
)

func TestNewMessage_IDsSortInCreationOrder(t *testing.T) {
	var prev string
	for i := 0; i < 50; i++ {
		m := domain.NewMessage(domain.SenderUser, "hi")
		require.NotEmpty(t, m.ID)
		if prev != "" {
			assert.Less(t, prev, m.ID)
		}
		prev = m.ID
	}
}

func TestVoiceOptions_PitchOrDefault(t *testing.T) {
	assert.Equal(t, 1.0, domain.VoiceOptions{}.PitchOrDefault())
	assert.Equal(t, 1.0, domain.VoiceOptions{Pitch: -2}.PitchOrDefault())
	assert.Equal(t, 1.2, domain.VoiceOptions{Pitch: 1.2}.PitchOrDefault())
}
