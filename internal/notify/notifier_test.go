package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
)

func TestNew_WithoutRelayIsNoop(t *testing.T) {
	n := New(config.NotificationConfig{}, zap.NewNop())
	_, ok := n.(*noopNotifier)
	require.True(t, ok)
	assert.NoError(t, n.Notify(context.Background(), "it@university.edu", "s", "b"))
}

func TestSMTPNotifier_RequiresRecipient(t *testing.T) {
	n := New(config.NotificationConfig{SMTPHost: "smtp.invalid", SMTPPort: 25, EmailFrom: "noreply@university.edu"}, zap.NewNop())
	err := n.Notify(context.Background(), "  ", "s", "b")
	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestSMTPNotifier_AuthOptions(t *testing.T) {
	plain := &smtpNotifier{cfg: config.NotificationConfig{SMTPPort: 25}}
	withAuth := &smtpNotifier{cfg: config.NotificationConfig{SMTPPort: 587, SMTPUsername: "u", SMTPPassword: "p"}}
	assert.Len(t, plain.clientOptions(), 2)
	assert.Len(t, withAuth.clientOptions(), 5)
}

func TestComplaintMessage(t *testing.T) {
	subject, body := ComplaintMessage(&domain.Complaint{
		ID:          12,
		Title:       "Projector broken",
		Category:    "technology",
		Description: "Room 101 projector does not turn on",
	}, "http://localhost:8092/")

	assert.Equal(t, "New Complaint: Projector broken", subject)
	assert.Contains(t, body, "Title: Projector broken")
	assert.Contains(t, body, "Description: Room 101 projector does not turn on")
	assert.Contains(t, body, "http://localhost:8092/complaints/12")
}
