package domain

import "errors"

var (
	ErrResourceNotFound   = errors.New("resource not found")
	ErrClientNotFound     = errors.New("client not found")
	ErrClientIDRequired   = errors.New("client_id is required")
	ErrCodeRequired       = errors.New("code is required")
	ErrExternalIDRequired = errors.New("external_id is required")
	ErrResourceExists     = errors.New("resource code already exists")
	ErrClientExists       = errors.New("client external_id already exists")
	ErrInvalidID          = errors.New("invalid id")
)
