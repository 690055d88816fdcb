package json

import (
	"context"
	"io"
	"os"
	"reflect"
	"time"
	"unsafe"

	jsoniter "github.com/json-iterator/go"
	"github.com/modern-go/reflect2"

	"github.com/olusolaa/site-provisioner/internal/core/domain"
	"github.com/olusolaa/site-provisioner/internal/core/ports"
	apperrors "github.com/olusolaa/site-provisioner/internal/errors"
)

const ReporterTypeJSON = "json"

type Config struct{}

type Reporter struct {
	config Config
	writer io.Writer
	logger ports.Logger
}

var _ ports.Reporter = (*Reporter)(nil)

type Option func(*Reporter)

func WithWriter(w io.Writer) Option {
	return func(r *Reporter) {
		if w != nil {
			r.writer = w
		}
	}
}

func NewReporter(cfg Config, logger ports.Logger, opts ...Option) (*Reporter, error) {
	r := &Reporter{
		config: cfg,
		writer: os.Stdout,
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

var rawJSON = jsoniter.Config{
	SortMapKeys:   true,
	IndentionStep: 2,
	EscapeHTML:    false,
}.Froze()

// detailJSON encodes platform records field by field. Numbers stay exact when
// read back for key sorting.
var detailJSON = func() jsoniter.API {
	api := jsoniter.Config{EscapeHTML: false, UseNumber: true}.Froze()
	api.RegisterExtension(&timestampExtension{})
	return api
}()

var timeType = reflect.TypeOf(time.Time{})

// timestampExtension writes every time.Time with domain.FormatTimestamp.
type timestampExtension struct {
	jsoniter.DummyExtension
}

func (e *timestampExtension) CreateEncoder(typ reflect2.Type) jsoniter.ValEncoder {
	if typ.Type1() == timeType {
		return timestampEncoder{}
	}
	return nil
}

type timestampEncoder struct{}

func (timestampEncoder) IsEmpty(ptr unsafe.Pointer) bool {
	return (*time.Time)(ptr).IsZero()
}

func (timestampEncoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	stream.WriteString(domain.FormatTimestamp((*time.Time)(ptr)))
}

// marshalDetail re-reads the encoded record as a generic tree so that nested
// keys sort too. Absent (null) fields are dropped.
func marshalDetail(detail any) ([]byte, error) {
	b, err := detailJSON.Marshal(detail)
	if err != nil {
		return nil, err
	}
	var tree any
	if err := detailJSON.Unmarshal(b, &tree); err != nil {
		return nil, err
	}
	return rawJSON.Marshal(dropNulls(tree))
}

func dropNulls(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if child == nil {
				delete(t, k)
				continue
			}
			t[k] = dropNulls(child)
		}
		return t
	case []any:
		for i, child := range t {
			t[i] = dropNulls(child)
		}
		return t
	default:
		return v
	}
}

// jsonDistribution is printed for records without a Detail. Fields are
// declared in key order so that every record prints with sorted keys.
type jsonDistribution struct {
	ARN                    string   `json:"ARN"`
	Aliases                []string `json:"Aliases"`
	CertificateArn         string   `json:"CertificateArn,omitempty"`
	Comment                string   `json:"Comment"`
	DomainName             string   `json:"DomainName"`
	Enabled                bool     `json:"Enabled"`
	HttpVersion            string   `json:"HttpVersion,omitempty"`
	Id                     string   `json:"Id"`
	IsIPV6Enabled          bool     `json:"IsIPV6Enabled"`
	LastModifiedTime       string   `json:"LastModifiedTime,omitempty"`
	MinimumProtocolVersion string   `json:"MinimumProtocolVersion,omitempty"`
	Origins                []string `json:"Origins"`
	PriceClass             string   `json:"PriceClass,omitempty"`
	Status                 string   `json:"Status"`
	WebACLId               string   `json:"WebACLId"`
}

func toJSON(d domain.Distribution) jsonDistribution {
	aliases := d.Aliases
	if aliases == nil {
		aliases = []string{}
	}
	origins := d.Origins
	if origins == nil {
		origins = []string{}
	}
	return jsonDistribution{
		ARN:                    d.ARN,
		Aliases:                aliases,
		CertificateArn:         d.CertificateARN,
		Comment:                d.Comment,
		DomainName:             d.DomainName,
		Enabled:                d.Enabled,
		HttpVersion:            d.HTTPVersion,
		Id:                     d.ID,
		IsIPV6Enabled:          d.IPv6Enabled,
		LastModifiedTime:       d.LastModifiedTime,
		MinimumProtocolVersion: d.MinimumProtocolVersion,
		Origins:                origins,
		PriceClass:             d.PriceClass,
		Status:                 d.Status,
		WebACLId:               d.WebACLID,
	}
}

func marshalDistribution(d domain.Distribution) ([]byte, error) {
	if d.Detail != nil {
		return marshalDetail(d.Detail)
	}
	return rawJSON.Marshal(toJSON(d))
}

// Report writes each distribution as its own indented JSON object.
func (r *Reporter) Report(ctx context.Context, records <-chan domain.Distribution) error {
	for {
		select {
		case <-ctx.Done():
			r.logger.Warnf(ctx, "JSON report generation cancelled.")
			return ctx.Err()
		case d, ok := <-records:
			if !ok {
				return nil
			}
			b, err := marshalDistribution(d)
			if err != nil {
				return apperrors.Wrap(err, apperrors.CodeReportError, "failed to marshal distribution "+d.ID)
			}
			b = append(b, '\n')
			if _, err := r.writer.Write(b); err != nil {
				return apperrors.Wrap(err, apperrors.CodeReportError, "failed to write JSON report")
			}
		}
	}
}
