package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/terraincognita07/cyclecast/internal/models"
	"github.com/terraincognita07/cyclecast/internal/services"
)

type ReminderQueue interface {
	EnqueueReplacingKind(ctx context.Context, reminder *models.PendingReminder) error
	CancelPending(ctx context.Context, token string) (bool, error)
}

// QueueDeliverer stores reminder requests in the pending reminder table,
// where the Dispatcher picks them up once they come due.
type QueueDeliverer struct {
	queue  ReminderQueue
	sender Sender
}

var (
	_ services.Deliverer = (*QueueDeliverer)(nil)
	_ services.Canceller = (*QueueDeliverer)(nil)
)

func NewQueueDeliverer(queue ReminderQueue, sender Sender) *QueueDeliverer {
	if sender == nil {
		sender = NoneSender{}
	}
	return &QueueDeliverer{queue: queue, sender: sender}
}

func (deliverer *QueueDeliverer) RequestAuthorization(ctx context.Context) (services.AuthResult, error) {
	return deliverer.sender.Authorize(ctx)
}

// Deliver queues request under a fresh token. Pending reminders of the same
// kind are cancelled in the same write.
func (deliverer *QueueDeliverer) Deliver(ctx context.Context, request models.NotificationRequest) (services.Ack, error) {
	reminder := models.PendingReminder{
		Token:  uuid.NewString(),
		Kind:   string(request.Kind),
		FireAt: request.FireAt.UTC(),
		Title:  request.Title,
		Body:   request.Body,
		Status: models.ReminderStatusPending,
	}
	if err := deliverer.queue.EnqueueReplacingKind(ctx, &reminder); err != nil {
		return services.Ack{}, fmt.Errorf("enqueue %s reminder: %w", request.Kind, err)
	}
	return services.Ack{Token: reminder.Token}, nil
}

// Cancel withdraws a pending reminder. Tokens that were already dispatched or
// cancelled are ignored.
func (deliverer *QueueDeliverer) Cancel(ctx context.Context, token string) error {
	if _, err := deliverer.queue.CancelPending(ctx, token); err != nil {
		return fmt.Errorf("cancel reminder %s: %w", token, err)
	}
	return nil
}
