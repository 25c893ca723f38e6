// Package notifications fans domain events out to users' in-app inboxes.
// Delivery is database-backed; clients poll or long-poll the
// notifications endpoints rather than receiving device pushes.
package notifications

import (
	"context"
	"fmt"

	"hanar/internal/domain/notifications"
)

type Event string

const (
	ListingCreated Event = "LISTING_CREATED"
	ListingRemoved Event = "LISTING_REMOVED"
	PackRenewed    Event = "PACK_RENEWED"
	AdminBroadcast Event = "ADMIN_BROADCAST"
)

type Notifier struct {
	store notifications.Store
}

func NewNotifier(store notifications.Store) *Notifier {
	return &Notifier{store: store}
}

// Notify writes a single event notification for one user.
func (n *Notifier) Notify(ctx context.Context, userID int64, event Event, subject string) error {
	var title, body string
	switch event {
	case ListingCreated:
		title = "Listing published"
		body = fmt.Sprintf("Your listing %q is now live on the marketplace.", subject)
	case ListingRemoved:
		title = "Listing removed"
		body = fmt.Sprintf("Your listing %q was removed by a moderator.", subject)
	case PackRenewed:
		title = "Casual Seller Pack active"
		body = fmt.Sprintf("Your pack is active until %s. You can hold up to 5 listings.", subject)
	default:
		title = "Hanar update"
		body = subject
	}

	return n.store.Create(ctx, &notifications.Notification{
		UserID: userID,
		Kind:   string(event),
		Title:  title,
		Body:   body,
	})
}

// Broadcast writes one message to every active account and returns the
// number of inboxes reached.
func (n *Notifier) Broadcast(ctx context.Context, title, body string) (int, error) {
	userIDs, err := n.store.AllUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list broadcast recipients: %w", err)
	}
	return n.store.CreateBatch(ctx, userIDs, string(AdminBroadcast), title, body)
}
