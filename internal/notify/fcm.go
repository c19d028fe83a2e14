// Package notify pushes transition notifications to approver devices.
// Dispatch happens after the workflow commit and is fire-and-forget:
// a delivery failure is logged, never surfaced to the transition caller.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"

	"github.com/rdvnburton-lab/istasyon-sub003/internal/domain"
)

// TokenSource lists the device tokens to notify.
type TokenSource interface {
	ActiveTokens(ctx context.Context) ([]string, error)
}

type FCMNotifier struct {
	Client *messaging.Client
	Tokens TokenSource
	Logger *slog.Logger
}

func NewFCMNotifier(ctx context.Context, app *firebase.App, tokens TokenSource, logger *slog.Logger) (*FCMNotifier, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init messaging client: %w", err)
	}
	return &FCMNotifier{Client: client, Tokens: tokens, Logger: logger}, nil
}

func (n *FCMNotifier) ShiftTransitioned(ctx context.Context, shift domain.Shift, entry domain.AuditLogEntry) {
	tokens, err := n.Tokens.ActiveTokens(ctx)
	if err != nil {
		n.Logger.Error("load notification tokens", "err", err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: fmt.Sprintf("Shift #%d %s", shift.ID, entry.ToStatus),
			Body:  transitionBody(entry),
		},
		Data: map[string]string{
			"shiftId": fmt.Sprintf("%d", shift.ID),
			"event":   string(entry.Action),
			"from":    string(entry.FromStatus),
			"to":      string(entry.ToStatus),
		},
	}

	resp, err := n.Client.SendEachForMulticast(ctx, msg)
	if err != nil {
		n.Logger.Error("send transition notification", "shift", shift.ID, "err", err)
		return
	}
	if resp.FailureCount > 0 {
		n.Logger.Warn("transition notification partially delivered",
			"shift", shift.ID, "ok", resp.SuccessCount, "failed", resp.FailureCount)
	}
}

func transitionBody(e domain.AuditLogEntry) string {
	if e.Note != "" {
		return fmt.Sprintf("%s by %s: %s", e.Action, e.ActorName, e.Note)
	}
	return fmt.Sprintf("%s by %s", e.Action, e.ActorName)
}
