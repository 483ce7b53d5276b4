package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imobcrm/erpsync/client"
	"github.com/imobcrm/erpsync/internal/domain"
)

func collect(t *testing.T, g *ERPGateway, ctx context.Context, cred domain.Credential) ([]domain.RawRecord, error) {
	t.Helper()
	var out []domain.RawRecord
	for rec, err := range g.FetchAll(ctx, cred, "contratos") {
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func TestFetchAllTwoPages(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "/api/contratos", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("itensPorPagina"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "app-secret", r.Header.Get("app_token"))
		assert.Equal(t, "license-token", r.Header.Get("access_token"))
		assert.Equal(t, "erpsync-test", r.Header.Get("User-Agent"))

		switch r.URL.Query().Get("pagina") {
		case "1":
			fmt.Fprint(w, `{"data":[{"id_contrato_con":1,"vl_aluguel_con":1234.56}]}`)
		default:
			fmt.Fprint(w, `{"data":[]}`)
		}
	}))
	defer srv.Close()

	g := NewERPGateway(client.New(client.WithUserAgent("erpsync-test")), ERPConfig{BaseURL: srv.URL + "/", AppToken: "app-secret", PageSize: 1})
	records, err := collect(t, g, context.Background(), domain.Credential{LicenseID: "lic-1", AccessToken: "license-token"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.EqualValues(t, 2, requests.Load())
	assert.Equal(t, json.Number("1234.56"), records[0]["vl_aluguel_con"])
}

func TestFetchAllImportsEveryRecordAcrossPages(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		switch r.URL.Query().Get("pagina") {
		case "1":
			fmt.Fprint(w, `{"data":[{"id_contrato_con":"1"},{"id_contrato_con":"2"}]}`)
		case "2":
			fmt.Fprint(w, `{"data":[{"id_contrato_con":"3"}]}`)
		default:
			fmt.Fprint(w, `{"data":[]}`)
		}
	}))
	defer srv.Close()

	g := NewERPGateway(client.New(), ERPConfig{BaseURL: srv.URL, PageSize: 2})
	records, err := collect(t, g, context.Background(), domain.Credential{LicenseID: "lic-1"})
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.EqualValues(t, 3, requests.Load())
}

func TestFetchAllCredentialBaseURLOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer srv.Close()

	g := NewERPGateway(client.New(), ERPConfig{BaseURL: "http://127.0.0.1:1"})
	_, err := collect(t, g, context.Background(), domain.Credential{LicenseID: "lic-1", BaseURL: srv.URL})
	require.NoError(t, err)
}

func TestFetchAllStatusErrorIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pagina") == "2" {
			http.Error(w, "upstream exploded", http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"data":[{"id_contrato_con":"1"}]}`)
	}))
	defer srv.Close()

	g := NewERPGateway(client.New(), ERPConfig{BaseURL: srv.URL})
	records, err := collect(t, g, context.Background(), domain.Credential{LicenseID: "lic-1"})
	assert.Len(t, records, 1)

	var upstream *domain.UpstreamFetchError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, 2, upstream.Page)
	assert.Equal(t, http.StatusBadGateway, upstream.StatusCode)
	assert.Equal(t, "lic-1", upstream.LicenseID)
	assert.Equal(t, "contratos", upstream.Resource)
}

func TestFetchAllMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>maintenance</html>`)
	}))
	defer srv.Close()

	g := NewERPGateway(client.New(), ERPConfig{BaseURL: srv.URL})
	_, err := collect(t, g, context.Background(), domain.Credential{LicenseID: "lic-1"})

	var upstream *domain.UpstreamFetchError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, 1, upstream.Page)
	assert.Zero(t, upstream.StatusCode)
}

func TestFetchAllBodyWithoutDataArrayIsFatal(t *testing.T) {
	bodies := []string{
		`{"status":"500","msg":"token invalido"}`,
		`{"data":null}`,
		`{}`,
		`null`,
	}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("pagina") == "1" {
					fmt.Fprint(w, `{"data":[{"id_contrato_con":"1"}]}`)
					return
				}
				fmt.Fprint(w, body)
			}))
			defer srv.Close()

			g := NewERPGateway(client.New(), ERPConfig{BaseURL: srv.URL})
			records, err := collect(t, g, context.Background(), domain.Credential{LicenseID: "lic-1"})
			assert.Len(t, records, 1)

			var upstream *domain.UpstreamFetchError
			require.True(t, errors.As(err, &upstream))
			assert.Equal(t, 2, upstream.Page)
			assert.Contains(t, upstream.Error(), "no data array")
		})
	}
}

func TestFetchAllTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	g := NewERPGateway(client.New(client.WithTimeout(time.Second)), ERPConfig{BaseURL: addr})
	_, err := collect(t, g, context.Background(), domain.Credential{LicenseID: "lic-1"})

	var upstream *domain.UpstreamFetchError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, 1, upstream.Page)
}

func TestFetchAllStopsOnCancelBetweenPages(t *testing.T) {
	var requests atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		fmt.Fprint(w, `{"data":[{"id_contrato_con":"1"}]}`)
	}))
	defer srv.Close()

	g := NewERPGateway(client.New(), ERPConfig{BaseURL: srv.URL})
	var err error
	for _, e := range g.FetchAll(ctx, domain.Credential{LicenseID: "lic-1"}, "contratos") {
		if e != nil {
			err = e
			break
		}
		cancel()
	}

	var upstream *domain.UpstreamFetchError
	require.True(t, errors.As(err, &upstream))
	assert.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 1, requests.Load())
}

func TestFetchAllConsumerStopsEarly(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		fmt.Fprint(w, `{"data":[{"id_contrato_con":"1"},{"id_contrato_con":"2"}]}`)
	}))
	defer srv.Close()

	g := NewERPGateway(client.New(), ERPConfig{BaseURL: srv.URL})
	for range g.FetchAll(context.Background(), domain.Credential{}, "contratos") {
		break
	}
	assert.EqualValues(t, 1, requests.Load())
}
