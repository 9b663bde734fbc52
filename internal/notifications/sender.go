package notifications

import (
	"context"

	"github.com/9ssi7/exponent"
)

// PushSender abstracts the Expo push service so notification code can be
// tested against a fake, though the message types are the exponent SDK's.
type PushSender interface {
	Publish(ctx context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error)
	PublishSingle(ctx context.Context, msg *exponent.Message) ([]*exponent.MessageResponse, error)
}
