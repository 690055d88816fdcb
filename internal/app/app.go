package app

import (
	"context"
	"io"
	"os"

	"github.com/olusolaa/site-provisioner/internal/config"
	"github.com/olusolaa/site-provisioner/internal/core/ports"
	"github.com/olusolaa/site-provisioner/internal/core/service"
	"github.com/olusolaa/site-provisioner/internal/errors"
	"github.com/olusolaa/site-provisioner/internal/reporting/json"
	"github.com/olusolaa/site-provisioner/internal/reporting/text"
)

// Application runs the CLI commands against one configured site.
type Application struct {
	Config      *config.Config
	Logger      ports.Logger
	Provisioner *service.Provisioner
	Reports     *service.ReportService
	out         io.Writer
}

func NewApplication(cfg *config.Config, logger ports.Logger, provisioner *service.Provisioner, reports *service.ReportService, out io.Writer) *Application {
	if out == nil {
		out = os.Stdout
	}
	return &Application{
		Config:      cfg,
		Logger:      logger,
		Provisioner: provisioner,
		Reports:     reports,
		out:         out,
	}
}

func (a *Application) Provision(ctx context.Context) (service.ProvisionResult, error) {
	a.Logger.Infof(ctx, "Provisioning %s in %s", a.Config.Site.Domain, a.Config.AWS.Region)

	res, err := a.Provisioner.Provision(ctx)
	if err != nil {
		a.Logger.Errorf(ctx, err, "Provisioning failed")
		return res, err
	}

	a.Logger.Infof(ctx, "Provisioning completed successfully")
	return res, nil
}

// Report lists distributions, or only filterID, as raw JSON or one line each.
func (a *Application) Report(ctx context.Context, filterID string, raw bool) error {
	reportLog := a.Logger.WithFields(map[string]any{"component": "reporter"})

	var reporter ports.Reporter
	var err error
	if raw {
		reporter, err = json.NewReporter(json.Config{}, reportLog, json.WithWriter(a.out))
	} else {
		reporter, err = text.NewReporter(a.Config.Report, reportLog, text.WithWriter(a.out))
	}
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to initialize reporter")
	}

	if err := a.Reports.Report(ctx, filterID, reporter); err != nil {
		a.Logger.Errorf(ctx, err, "Report failed")
		return err
	}
	return nil
}

func (a *Application) Status(ctx context.Context) error {
	status, err := a.Provisioner.Status(ctx)
	if err != nil {
		a.Logger.Errorf(ctx, err, "Status lookup failed")
		return err
	}

	reporter, err := text.NewReporter(a.Config.Report, a.Logger, text.WithWriter(a.out))
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to initialize reporter")
	}
	return reporter.ReportStatus(ctx, status)
}
