package archive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imobcrm/erpsync/internal/domain"
)

type mockS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.input = params
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	m.body = body
	return &s3.PutObjectOutput{}, nil
}

func TestS3ArchivePut(t *testing.T) {
	api := &mockS3{}
	a := NewS3ArchiveWithClient(api, "snapshots", "erp/raw")

	records := []domain.RawRecord{{"id_contrato_con": json.Number("1")}}
	require.NoError(t, a.Put(context.Background(), "lic-1", "run-1", records))

	assert.Equal(t, "snapshots", aws.ToString(api.input.Bucket))
	assert.Equal(t, "erp/raw/lic-1/run-1.json", aws.ToString(api.input.Key))
	assert.Equal(t, "application/json", aws.ToString(api.input.ContentType))
	assert.JSONEq(t, `[{"id_contrato_con":1}]`, string(api.body))
}

func TestS3ArchivePutError(t *testing.T) {
	api := &mockS3{err: errors.New("access denied")}
	a := NewS3ArchiveWithClient(api, "snapshots", "")
	err := a.Put(context.Background(), "lic-1", "run-1", nil)
	assert.ErrorContains(t, err, "access denied")
}
