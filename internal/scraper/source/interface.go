// Package source defines the common types and errors shared by record
// source implementations.
package source

import "context"

// RecordSource produces one record per domain.
type RecordSource interface {
	// Fetch retrieves the breakdown for domain. A nil error with
	// StatusEmpty or StatusLimitReached carries no record.
	Fetch(ctx context.Context, domain string) (Result, error)
}

type Kind string

const (
	KindDOM Kind = "dom"
	KindAPI Kind = "api"
)
