package mailer

import "embed"

const (
	FromName                   = "AdCraft"
	maxRetries                 = 3
	LaunchConfirmationTemplate = "launch_confirmation.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(templateFile, username, email string, data any) (int, error)
}
