package gateway

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/imobcrm/erpsync/client"
	"github.com/imobcrm/erpsync/internal/domain"
	"github.com/imobcrm/erpsync/internal/usecase"
)

var tracer = otel.Tracer("gateway")

const DefaultPageSize = 50

// ERPConfig is fixed for the lifetime of the gateway.
type ERPConfig struct {
	BaseURL  string
	AppToken string
	PageSize int
}

type ERPGateway struct {
	client *client.Client
	conf   ERPConfig
}

func NewERPGateway(cl *client.Client, conf ERPConfig) *ERPGateway {
	if conf.PageSize <= 0 {
		conf.PageSize = DefaultPageSize
	}
	return &ERPGateway{client: cl, conf: conf}
}

// Data is a pointer so that a missing or null array is told apart from an
// empty one.
type page struct {
	Data *[]domain.RawRecord `json:"data"`
}

// FetchAll walks pages 1, 2, ... until the ERP answers with an empty data
// array. A body without a data array is a failure. The first failure is
// yielded as *domain.UpstreamFetchError and ends the sequence. The context is
// only consulted between pages.
func (g *ERPGateway) FetchAll(ctx context.Context, cred domain.Credential, resource string) iter.Seq2[domain.RawRecord, error] {
	return func(yield func(domain.RawRecord, error) bool) {
		ctx, span := tracer.Start(ctx, "ERP.Gateway.FetchAll")
		defer span.End()
		span.SetAttributes(attribute.String("License", cred.LicenseID), attribute.String("Resource", resource))

		for n := 1; ; n++ {
			if err := ctx.Err(); err != nil {
				yield(nil, &domain.UpstreamFetchError{LicenseID: cred.LicenseID, Resource: resource, Page: n, Err: err})
				return
			}

			records, err := g.fetchPage(ctx, cred, resource, n)
			if err != nil {
				span.RecordError(err)
				yield(nil, err)
				return
			}
			if len(records) == 0 {
				span.SetAttributes(attribute.Int("Pages", n-1))
				return
			}
			for _, rec := range records {
				if !yield(rec, nil) {
					return
				}
			}
		}
	}
}

func (g *ERPGateway) fetchPage(ctx context.Context, cred domain.Credential, resource string, n int) ([]domain.RawRecord, error) {
	fail := func(status int, err error) error {
		return &domain.UpstreamFetchError{
			LicenseID:  cred.LicenseID,
			Resource:   resource,
			Page:       n,
			StatusCode: status,
			Err:        err,
		}
	}

	base := g.conf.BaseURL
	if cred.BaseURL != "" {
		base = cred.BaseURL
	}
	if base == "" {
		return nil, fail(0, errors.New("no upstream base url configured"))
	}

	endpoint := fmt.Sprintf("%s/api/%s?pagina=%d&itensPorPagina=%d",
		strings.TrimRight(base, "/"), url.PathEscape(resource), n, g.conf.PageSize)

	header := http.Header{}
	header["Accept"] = []string{"application/json"}
	header["app_token"] = []string{g.conf.AppToken}
	header["access_token"] = []string{cred.AccessToken}

	var body page
	if err := g.client.GetJSON(ctx, endpoint, header, &body); err != nil {
		var statusErr *client.StatusError
		if errors.As(err, &statusErr) {
			return nil, fail(statusErr.StatusCode, err)
		}
		return nil, fail(0, err)
	}
	if body.Data == nil {
		return nil, fail(0, errors.New("response has no data array"))
	}
	return *body.Data, nil
}

var _ usecase.RecordSource = (*ERPGateway)(nil)
