package application_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"voice-tutor/internal/application"
	"voice-tutor/internal/domain"
)

func TestConversation_AppendKeepsOrder(t *testing.T) {
	c := application.NewConversation()
	c.Append(domain.NewMessage(domain.SenderUser, "hello"))
	c.Append(domain.NewMessage(domain.SenderAssistant, "Hi there!"))

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, "hello", msgs[0].Text)
	require.Equal(t, "Hi there!", msgs[1].Text)

	msgs[0].Text = "mutated"
	require.Equal(t, "hello", c.Messages()[0].Text, "Messages must return a copy")
}
