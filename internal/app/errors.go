package app

import "errors"

var (
	ErrMissingDocumentName = errors.New("no pdf file name provided")
	ErrBusy                = errors.New("document is being processed")
	ErrQueueDisabled       = errors.New("process queue is not configured")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidCredential   = errors.New("invalid username or password")
	ErrAuthDisabled        = errors.New("operator auth is disabled")
)
