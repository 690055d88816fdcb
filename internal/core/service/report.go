package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/olusolaa/site-provisioner/internal/core/domain"
	"github.com/olusolaa/site-provisioner/internal/core/ports"
	"github.com/olusolaa/site-provisioner/internal/errors"
)

const reportBuffer = 100

// ReportService streams existing distributions to a reporter.
type ReportService struct {
	cdn    ports.ContentDelivery
	logger ports.Logger
}

func NewReportService(cdn ports.ContentDelivery, logger ports.Logger) (*ReportService, error) {
	if cdn == nil {
		return nil, errors.New(errors.CodeConfigValidation, "content delivery provider cannot be nil")
	}
	if logger == nil {
		return nil, errors.New(errors.CodeConfigValidation, "logger cannot be nil")
	}
	return &ReportService{cdn: cdn, logger: logger.WithFields(map[string]any{"component": "report"})}, nil
}

// Report sends every distribution, or only filterID when set, to reporter.
// The listing and the reporter run concurrently; the first error from either
// cancels the other.
func (s *ReportService) Report(ctx context.Context, filterID string, reporter ports.Reporter) error {
	if reporter == nil {
		return errors.New(errors.CodeInternal, "reporter cannot be nil")
	}

	records := make(chan domain.Distribution, reportBuffer)
	g, childCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(records)
		if filterID != "" {
			s.logger.Debugf(childCtx, "Fetching distribution %s", filterID)
			d, err := s.cdn.GetDistribution(childCtx, filterID)
			if err != nil {
				return err
			}
			select {
			case records <- d:
				return nil
			case <-childCtx.Done():
				return childCtx.Err()
			}
		}
		return s.cdn.ListDistributions(childCtx, records)
	})

	g.Go(func() error {
		if err := reporter.Report(childCtx, records); err != nil {
			return errors.Wrap(err, errors.CodeReportError, "failed to write distribution report")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		if err == context.Canceled || err == context.DeadlineExceeded {
			s.logger.Warnf(ctx, "Report cancelled or timed out.")
		}
		return err
	}
	return nil
}
