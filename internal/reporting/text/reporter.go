package text

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/olusolaa/site-provisioner/internal/core/domain"
	"github.com/olusolaa/site-provisioner/internal/core/ports"
)

const ReporterTypeText = "text"

type Config struct {
	NoColor bool `mapstructure:"no_color" yaml:"no_color"`
}

type Reporter struct {
	config   Config
	writer   io.Writer
	logger   ports.Logger
	colorize bool
}

var (
	_ ports.Reporter       = (*Reporter)(nil)
	_ ports.StatusReporter = (*Reporter)(nil)
)

type Option func(*Reporter)

// WithWriter sends output to w instead of stdout.
func WithWriter(w io.Writer) Option {
	return func(r *Reporter) {
		if w != nil {
			r.writer = w
		}
	}
}

// NewReporter colors output only when it goes to a terminal and cfg.NoColor
// is unset. The fatih/color global switch is left alone.
func NewReporter(cfg Config, logger ports.Logger, opts ...Option) (*Reporter, error) {
	r := &Reporter{
		config: cfg,
		writer: os.Stdout,
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	f, ok := r.writer.(*os.File)
	r.colorize = !cfg.NoColor && ok && isTerminal(f)
	return r, nil
}

func (r *Reporter) paint(attr color.Attribute) func(a ...any) string {
	c := color.New(attr)
	if r.colorize {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.SprintFunc()
}

func isTerminal(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// Report prints one "<Id> <ARN> <DomainName> <Comment>" line per distribution.
func (r *Reporter) Report(ctx context.Context, records <-chan domain.Distribution) error {
	cyan := r.paint(color.FgCyan)

	count := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-records:
			if !ok {
				r.logger.Debugf(ctx, "Reported %d distribution(s)", count)
				return nil
			}
			count++
			if _, err := fmt.Fprintf(r.writer, "%s %s %s %s\n", cyan(d.ID), d.ARN, d.DomainName, d.Comment); err != nil {
				return err
			}
		}
	}
}

func (r *Reporter) ReportStatus(ctx context.Context, status domain.SiteStatus) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	red := r.paint(color.FgRed)
	yellow := r.paint(color.FgYellow)
	green := r.paint(color.FgGreen)

	present := func(ok bool) string {
		if ok {
			return green("[OK]")
		}
		return red("[MISSING]")
	}

	tw := tabwriter.NewWriter(r.writer, 0, 8, 2, ' ', 0)

	fmt.Fprintf(tw, "Site Status: %s\n", status.Domain)
	fmt.Fprintln(tw, "Current Buckets:")
	for _, b := range status.Buckets {
		fmt.Fprintf(tw, "  %s\n", b.Name)
	}
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "Web bucket\t%s\t%s\n", status.WebBucket, present(status.HasBucket(status.WebBucket)))
	fmt.Fprintf(tw, "Log bucket\t%s\t%s\n", status.LogBucket, present(status.HasBucket(status.LogBucket)))

	switch {
	case status.Certificate == nil:
		fmt.Fprintf(tw, "Certificate\t-\t%s\n", red("[MISSING]"))
	case status.Certificate.Status == domain.CertStatusIssued:
		fmt.Fprintf(tw, "Certificate\t%s\t%s\n", status.Certificate.ARN, green("[ISSUED]"))
	default:
		fmt.Fprintf(tw, "Certificate\t%s\t%s\n", status.Certificate.ARN, yellow("["+status.Certificate.Status.String()+"]"))
	}

	if len(status.Distributions) == 0 {
		fmt.Fprintf(tw, "Distribution\t-\t%s\n", red("[MISSING]"))
	}
	for _, d := range status.Distributions {
		fmt.Fprintf(tw, "Distribution\t%s %s\t%s\n", d.ID, d.DomainName, green("["+d.Status+"]"))
	}

	return tw.Flush()
}
