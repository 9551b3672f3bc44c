package notify

import (
	"context"
	"testing"

	"jobscout/internal/config"
	"jobscout/internal/model"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubSender struct {
	calls   int
	lastMsg EmailMessage
	err     error
}

func (s *stubSender) Send(ctx context.Context, msg EmailMessage) error {
	s.calls++
	s.lastMsg = msg
	return s.err
}

func TestEmailNotifierSendsWhenNewJobs(t *testing.T) {
	t.Parallel()

	sender := &stubSender{}
	n := NewEmailNotifier(config.EmailConfig{
		From: "from@example.com",
		To:   []string{"to@example.com"},
	}, sender)

	jobs := []model.Job{{Title: "Go Developer", Company: "Acme", Source: "indeed", URL: "https://x"}}
	require.NoError(t, n.Notify(context.Background(), jobs))
	require.Equal(t, 1, sender.calls)
	require.Equal(t, "New job postings", sender.lastMsg.Subject)
	require.Contains(t, sender.lastMsg.Body, "Go Developer")
	require.Contains(t, sender.lastMsg.Body, "Acme")
}

func TestEmailNotifierSkipsWhenEmpty(t *testing.T) {
	t.Parallel()

	sender := &stubSender{}
	n := NewEmailNotifier(config.EmailConfig{From: "from@example.com", To: []string{"to@example.com"}}, sender)

	require.NoError(t, n.Notify(context.Background(), nil))
	require.Zero(t, sender.calls)
}

func TestBuildEmailDataHeaders(t *testing.T) {
	t.Parallel()

	data := buildEmailData(EmailMessage{
		From:    "from@example.com",
		To:      []string{"a@example.com", "b@example.com"},
		Subject: "New job postings",
		Body:    "body",
	})
	require.Contains(t, data, "From: from@example.com\r\n")
	require.Contains(t, data, "To: a@example.com,b@example.com\r\n")
	require.Contains(t, data, "Subject: New job postings\r\n")
	require.Contains(t, data, "\r\n\r\nbody")
}

func TestMultiNotifier(t *testing.T) {
	t.Parallel()

	sender := &stubSender{}
	multi := Multi{
		NewLogNotifier(zap.NewNop()),
		NewEmailNotifier(config.EmailConfig{From: "f@x", To: []string{"t@x"}}, sender),
	}

	require.NoError(t, multi.Notify(context.Background(), []model.Job{{Title: "Job"}}))
	require.Equal(t, 1, sender.calls)
}
