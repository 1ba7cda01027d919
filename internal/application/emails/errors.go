package emails

import "errors"

var (
	ErrTemplateNotFound  = errors.New("email template not found")
	ErrTemplateRender    = errors.New("email template render failed")
	ErrMissingRecipients = errors.New("missing recipients")
	ErrInvalidTransition = errors.New("invalid scheduled email state transition")
)
