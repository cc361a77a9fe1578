package repository

import "errors"

var (
	ErrDomainNotFound   = errors.New("domain not found")
	ErrTestNotFound     = errors.New("placement test not found")
	ErrSummaryNotFound  = errors.New("test summary not found")
	ErrConcurrentUpdate = errors.New("domain was updated concurrently")
	ErrInvalidInput     = errors.New("invalid input parameters")
)
