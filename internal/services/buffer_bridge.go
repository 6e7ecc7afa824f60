package services

import (
	"context"

	"github.com/fastygo/accounts/domain"
	"github.com/fastygo/accounts/internal/infrastructure/buffer"
	"github.com/fastygo/accounts/usecase"
)

// BufferBridge lets use cases hand writes to the processor without knowing
// about the bbolt item format.
type BufferBridge struct {
	processor *BufferProcessor
}

func NewBufferBridge(processor *BufferProcessor) *BufferBridge {
	return &BufferBridge{processor: processor}
}

func (b *BufferBridge) BufferActivity(_ context.Context, activity *domain.LoginActivity) error {
	if b.processor == nil || activity == nil || activity.ID == "" {
		return domain.ErrInvalidPayload
	}
	item, err := buffer.NewItem(activity.ID, activity.UserID, buffer.EntityLoginActivity, buffer.OperationAppend, activity)
	if err != nil {
		return err
	}
	return b.processor.Enqueue(item)
}

var _ usecase.ActivityBuffer = (*BufferBridge)(nil)
