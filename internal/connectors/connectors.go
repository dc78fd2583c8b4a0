// Package connectors pulls RFQ e-mails from a mailbox into the local inbox
// directory, where the watcher picks them up.
package connectors

import (
	"context"

	"rfq/internal"
)

type MailConnector interface {
	FetchInbox(ctx context.Context, label string, max int) ([]internal.InboundMessage, error)
}
