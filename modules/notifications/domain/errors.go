package domain

import "errors"

var (
	ErrRuleNotFound       = errors.New("notification rule not found")
	ErrTargetRequired     = errors.New("transition target is required")
	ErrInvalidNotify      = errors.New("invalid notify selector")
	ErrRecipientRequired  = errors.New("recipient is required for the recipient selector")
	ErrTemplateRequired   = errors.New("template subject and body are required")
	ErrInvalidAttachment  = errors.New("attachment needs a filename and a reference")
	ErrDuplicateFilename  = errors.New("duplicate attachment filename")
	ErrInvalidTranslation = errors.New("invalid translation language")
)
