package service

import (
	"context"
	"fmt"
	"log/slog"

	"go-bookshelf-api/internal/event"
	"go-bookshelf-api/internal/model"
)

const notificationPageSize = 20

type NotificationService struct {
	store NotificationStore
	bus   event.Bus
}

func NewNotificationService(store NotificationStore, bus event.Bus) *NotificationService {
	return &NotificationService{store: store, bus: bus}
}

// Notify stores a notification for recipient and pushes it to the
// recipient's live connections. Acting on your own content never notifies.
func (s *NotificationService) Notify(ctx context.Context, recipientID int64, actor model.User, verb string, targetType string, targetID *int64, metadata map[string]any) {
	if s == nil || recipientID == 0 || recipientID == actor.ID {
		return
	}

	created, err := s.store.Create(ctx, model.Notification{
		RecipientID:   recipientID,
		ActorID:       actor.ID,
		ActorUsername: actor.Username,
		Verb:          verb,
		TargetType:    targetType,
		TargetID:      targetID,
		Metadata:      metadata,
	})
	if err != nil {
		slog.Warn("failed to create notification", "recipient_id", recipientID, "verb", verb, "error", err)
		return
	}

	if s.bus != nil {
		s.bus.Publish(event.New(event.TypeNotificationCreated, actor.ID, created).To(recipientID))
	}
}

func (s *NotificationService) List(ctx context.Context, query model.NotificationQuery) (model.NotificationList, model.Meta, error) {
	query.Page, query.PageSize = model.NormalizePage(query.Page, query.PageSize, notificationPageSize)

	items, total, err := s.store.List(ctx, query)
	if err != nil {
		return model.NotificationList{}, model.Meta{}, err
	}

	unread, err := s.store.UnreadCount(ctx, query.RecipientID)
	if err != nil {
		return model.NotificationList{}, model.Meta{}, err
	}

	return model.NotificationList{Items: items, UnreadCount: unread}, model.NewMeta(query.Page, query.PageSize, total), nil
}

// MarkRead reports ErrNotificationNotFound for notifications addressed to
// someone else.
func (s *NotificationService) MarkRead(ctx context.Context, id int64, recipientID int64) (model.Notification, error) {
	return s.store.MarkRead(ctx, id, recipientID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID int64) (model.MessageResponse, error) {
	count, err := s.store.MarkAllRead(ctx, recipientID)
	if err != nil {
		return model.MessageResponse{}, err
	}
	return model.MessageResponse{Message: fmt.Sprintf("Marked %d notifications as read.", count)}, nil
}
