package connectors

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"rfq/internal/pipeline"
)

type FetchService struct {
	connector MailConnector
	store     *InboxStore
	logger    *slog.Logger
}

type FetchResult struct {
	Fetched int
	Stored  int
	Skipped int
}

func NewFetchService(inboxDir string, connector MailConnector, logger *slog.Logger) *FetchService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &FetchService{
		connector: connector,
		store:     NewInboxStore(inboxDir),
		logger:    logger,
	}
}

// FetchToInbox stores every fetched message that carries an XML export.
// Messages without one are skipped; messages already in the inbox are not
// counted as stored.
func (s *FetchService) FetchToInbox(ctx context.Context, label string, max int) (FetchResult, error) {
	messages, err := s.connector.FetchInbox(ctx, label, max)
	if err != nil {
		return FetchResult{}, err
	}

	res := FetchResult{Fetched: len(messages)}
	for _, msg := range messages {
		if _, err := pipeline.XMLAttachment(msg.Raw); err != nil {
			if !errors.Is(err, pipeline.ErrNoXMLAttachment) {
				s.logger.Warn("unreadable message", "provider", msg.Provider, "message_id", msg.MessageID, "error", err)
			}
			res.Skipped++
			continue
		}
		path, isNew, err := s.store.Store(msg.Raw)
		if err != nil {
			return res, err
		}
		if isNew {
			res.Stored++
			s.logger.Info("message stored", "provider", msg.Provider, "message_id", msg.MessageID, "subject", msg.Subject, "path", path)
		}
	}
	return res, nil
}
