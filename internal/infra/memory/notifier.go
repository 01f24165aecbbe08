package memory

import (
	"context"
	"log"
	"sync"

	"exam-portal/internal/domain"
)

// LogNotifier stands in for a broker when none is configured: it logs and keeps invitations.
type LogNotifier struct {
	mu   sync.Mutex
	sent []domain.EmailInvitation
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Publish(_ context.Context, inv domain.EmailInvitation) error {
	n.mu.Lock()
	n.sent = append(n.sent, inv)
	n.mu.Unlock()
	log.Printf("invitation for exam %s sent to %s", inv.ExamID, inv.Email)
	return nil
}

// Sent returns the invitations published so far.
func (n *LogNotifier) Sent() []domain.EmailInvitation {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.EmailInvitation(nil), n.sent...)
}
