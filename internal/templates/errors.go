package templates

import "errors"

var (
	ErrTemplatePathRequired = errors.New("templates: template path is required")
	ErrContentRequired      = errors.New("templates: content is required")
	ErrTemplateExists       = errors.New("templates: template already exists")
	ErrTemplateNotFound     = errors.New("templates: template not found")
	ErrTemplateUnavailable  = errors.New("templates: template could not be loaded")
	ErrNoWritableStore      = errors.New("templates: no writable store configured")
)
