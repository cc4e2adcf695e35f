package model

import "errors"

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrSKUTaken           = errors.New("SKU already exists")
	ErrBarcodeTaken       = errors.New("barcode already exists")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrSessionNotFound    = errors.New("import session not found or expired")
	ErrSessionCommitted   = errors.New("import session already committed")
	ErrCommitInProgress   = errors.New("a commit for this session is already running")
	ErrNoRowsToCommit     = errors.New("no rows to commit")
	ErrProviderNotSet     = errors.New("no AI provider configured for this tenant")
	ErrExtractionTimedOut = errors.New("extraction timed out")
)
