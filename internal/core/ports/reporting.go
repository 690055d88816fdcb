package ports

import (
	"context"

	"github.com/olusolaa/site-provisioner/internal/core/domain"
)

// Reporter consumes distribution records until records is closed or ctx ends.
type Reporter interface {
	Report(ctx context.Context, records <-chan domain.Distribution) error
}

type StatusReporter interface {
	ReportStatus(ctx context.Context, status domain.SiteStatus) error
}
