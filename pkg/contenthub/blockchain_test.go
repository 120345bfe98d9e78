package contenthub_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagedao/hub-api/pkg/contenthub"
	trackermem "github.com/pagedao/hub-api/pkg/contenthub/tracker/memory"
)

func nftFixture() *trackermem.Factory {
	f := trackermem.New(allTypes...)
	f.AddContract(trackermem.Contract{
		Address: "0xNF", Chain: contenthub.ChainEthereum, Type: contenthub.TypeNFT,
		Info: map[string]any{"name": "Punks"},
		Tokens: []trackermem.Token{
			{
				ID: "1", Owner: "0xOwner",
				Metadata: map[string]any{
					"title":          "Genesis",
					"description":    "first",
					"imageURI":       "ipfs://genesis",
					"totalSupply":    3,
					"additionalData": map[string]any{"symbol": "PNK"},
				},
				Rights: map[string]any{"license": "cc-by"},
			},
			{ID: "2", Owner: "0xowner", Metadata: map[string]any{"title": "Second"}},
			{ID: "3", Owner: "0xOther", Metadata: map[string]any{"title": "Third"}},
		},
	})
	f.AddContract(trackermem.Contract{
		Address: "0xIO", Chain: contenthub.ChainBase, Type: contenthub.TypeBook, InfoOnly: true,
		Info: map[string]any{"name": "Info only"},
	})
	return f
}

func TestQuery_Methods(t *testing.T) {
	svc := setupTestService(t, nftFixture())
	ctx := context.Background()
	req := func(method string, params ...string) contenthub.BlockchainRequest {
		return contenthub.BlockchainRequest{Chain: "ethereum", Address: "0xNF", Method: method, Params: params}
	}

	got, err := svc.Query(ctx, req(""))
	require.NoError(t, err)
	assert.Equal(t, contenthub.Fields{"address": "0xNF", "chain": "ethereum", "type": "nft", "name": "Punks"}, got)

	got, err = svc.Query(ctx, req(contenthub.MethodTokens, "2"))
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, got)

	got, err = svc.Query(ctx, req(contenthub.MethodMetadata, "2"))
	require.NoError(t, err)
	assert.Equal(t, contenthub.Fields{"title": "Second"}, got)

	got, err = svc.Query(ctx, req(contenthub.MethodOwnership, "3"))
	require.NoError(t, err)
	assert.Equal(t, contenthub.Fields{"tokenId": "3", "owner": "0xOther"}, got)

	got, err = svc.Query(ctx, req(contenthub.MethodRights, "1"))
	require.NoError(t, err)
	assert.Equal(t, contenthub.Fields{"license": "cc-by"}, got)

	got, err = svc.Query(ctx, req(contenthub.MethodOwnerTokens, "0xOWNER"))
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, got)
}

func TestQuery_Errors(t *testing.T) {
	svc := setupTestService(t, nftFixture())
	ctx := context.Background()

	tests := []struct {
		name string
		req  contenthub.BlockchainRequest
		want error
	}{
		{"missing chain", contenthub.BlockchainRequest{Address: "0xNF"}, contenthub.ErrMissingParam},
		{"missing address", contenthub.BlockchainRequest{Chain: "ethereum"}, contenthub.ErrMissingParam},
		{"unknown chain", contenthub.BlockchainRequest{Chain: "solana", Address: "0xNF"}, contenthub.ErrInvalidParam},
		{"unknown method", contenthub.BlockchainRequest{Chain: "ethereum", Address: "0xNF", Method: "burn"}, contenthub.ErrUnsupportedOperation},
		{"missing token", contenthub.BlockchainRequest{Chain: "ethereum", Address: "0xNF", Method: contenthub.MethodMetadata}, contenthub.ErrMissingParam},
		{"bad maxTokens", contenthub.BlockchainRequest{Chain: "ethereum", Address: "0xNF", Method: contenthub.MethodTokens, Params: []string{"many"}}, contenthub.ErrInvalidParam},
		{"no capable tracker", contenthub.BlockchainRequest{Chain: "base", Address: "0xIO", Method: contenthub.MethodMetadata, Params: []string{"1"}}, contenthub.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Query(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
