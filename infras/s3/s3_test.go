package s3_test

import (
	"context"
	"errors"
	"io"
	"testing"

	otelMocks "retreat/infras/otel/mocks"
	"retreat/infras/s3"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsS3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPutter struct {
	input *awsS3.PutObjectInput
	body  []byte
	err   error
}

func (s *stubPutter) PutObject(_ context.Context, params *awsS3.PutObjectInput, _ ...func(*awsS3.Options)) (*awsS3.PutObjectOutput, error) {
	s.input = params
	s.body, _ = io.ReadAll(params.Body)

	return &awsS3.PutObjectOutput{}, s.err
}

func TestPutObject(t *testing.T) {
	stub := &stubPutter{}
	store := s3.NewWithClient(stub, "archive", "https://cdn.example.com/", otelMocks.NewOtel())

	url, err := store.PutObject(context.Background(), "webhooks/payment/2025/03/01/evt_1.json", "application/json", []byte(`{"id":"evt_1"}`))
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/webhooks/payment/2025/03/01/evt_1.json", url)
	assert.Equal(t, "archive", aws.ToString(stub.input.Bucket))
	assert.Equal(t, "application/json", aws.ToString(stub.input.ContentType))
	assert.Equal(t, int64(14), aws.ToInt64(stub.input.ContentLength))
	assert.JSONEq(t, `{"id":"evt_1"}`, string(stub.body))
}

func TestPutObjectError(t *testing.T) {
	stub := &stubPutter{err: errors.New("access denied")}
	store := s3.NewWithClient(stub, "archive", "", otelMocks.NewOtel())

	url, err := store.PutObject(context.Background(), "k", "application/json", nil)
	require.Error(t, err)
	assert.Empty(t, url)
}

func TestObjectURL(t *testing.T) {
	assert.Equal(t, "s3://archive/a/b.json", s3.ObjectURL("", "archive", "a/b.json"))
	assert.Equal(t, "https://cdn.example.com/a/b.json", s3.ObjectURL("https://cdn.example.com", "archive", "a/b.json"))
}
