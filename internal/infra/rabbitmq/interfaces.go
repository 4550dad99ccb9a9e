package rabbitmq

import (
	"context"

	"github.com/1lorincer/nomad-task/internal/domain"
)

type NotifierInterface interface {
	Send(ctx context.Context, msg domain.EmailMessage) error
}

var _ NotifierInterface = (*EmailNotifier)(nil)
