package mailer

import "embed"

const (
	FromName                  = "Paws & Claws"
	maxRetires                = 3
	OrderConfirmationTemplate = "order_confirmation.tmpl"
	PaymentFailedTemplate     = "payment_failed.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(templateFile, username, email string, data any) (int, error)
}
