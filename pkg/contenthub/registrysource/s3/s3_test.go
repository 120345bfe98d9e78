package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagedao/hub-api/pkg/contenthub"
)

type fakeClient struct {
	objects map[string]string
	err     error
	keys    []string
}

func (f *fakeClient) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(in.Key)
	f.keys = append(f.keys, key)
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.objects[key]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
	}
	n := int64(len(body))
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader([]byte(body))),
		ContentLength: aws.Int64(n),
		ContentRange:  aws.String(fmt.Sprintf("bytes 0-%d/%d", n-1, n)),
	}, nil
}

func TestSource_GetContracts(t *testing.T) {
	client := &fakeClient{objects: map[string]string{
		"registry/base.json": `[{"address": "0xB1", "type": "book", "name": "Base Book"}]`,
		"registry/zora.json": `[{"address": "0xZ1", "type": "nft"}, {"address": "0xZ2", "type": "publication"}]`,
	}}
	src := NewWithClient(client, "hub", "registry")

	records, err := src.GetContracts(context.Background(), "all")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Base Book", records[0].Name)
	assert.Equal(t, contenthub.ChainZora, records[2].Chain)
	assert.Len(t, client.keys, len(contenthub.SupportedChains))

	records, err = src.GetContracts(context.Background(), "polygon")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSource_Errors(t *testing.T) {
	src := NewWithClient(&fakeClient{err: errors.New("access denied")}, "hub", "")
	_, err := src.GetContracts(context.Background(), "base")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://hub/base.json")

	_, err = New(context.Background(), Config{})
	assert.EqualError(t, err, "bucket name is required")
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(&types.NoSuchKey{}))
	assert.True(t, isNotFound(fmt.Errorf("wrapped: %w", &types.NotFound{})))
	assert.True(t, isNotFound(&smithy.GenericAPIError{Code: "NoSuchKey"}))
	assert.False(t, isNotFound(&smithy.GenericAPIError{Code: "AccessDenied"}))
	assert.False(t, isNotFound(errors.New("timeout")))
}
