package contenthub_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/pagedao/hub-api/pkg/contenthub"
)

func TestMerge_RegistryIdentityLiveAttributes(t *testing.T) {
	rec := &contenthub.ContentRecord{
		Address: "0xAA", Chain: contenthub.ChainBase, Type: contenthub.TypeBook,
		Name: "Curated", Featured: true,
		Extra: contenthub.Fields{"author": "Ann", "cover": "old.png"},
	}
	rc := contenthub.ResolvedContent{
		Address: "0xaa", Chain: contenthub.ChainEthereum, Type: contenthub.TypeNFT,
		Info: contenthub.Fields{"name": "Live", "cover": "new.png", "chain": "polygon", "supply": 10},
	}

	out := contenthub.Merge(rec, rc)
	assert.Equal(t, "0xAA", out["address"])
	assert.Equal(t, "base", out["chain"])
	assert.Equal(t, "book", out["type"])
	assert.Equal(t, "Live", out["name"])
	assert.Equal(t, "new.png", out["cover"])
	assert.Equal(t, "Ann", out["author"])
	assert.Equal(t, true, out["featured"])
	assert.Equal(t, 10, out["supply"])
}

func TestMerge_WithoutRecordUsesResolution(t *testing.T) {
	out := contenthub.Merge(nil, contenthub.ResolvedContent{
		Address: "0xBB", Chain: contenthub.ChainZora, Type: contenthub.TypeNFT,
		Info: contenthub.Fields{"name": "Zed", "type": "erc721"},
	})
	assert.Equal(t, contenthub.Fields{"address": "0xBB", "chain": "zora", "type": "nft", "name": "Zed"}, out)

	out = contenthub.Merge(nil, contenthub.ResolvedContent{
		Address: "0xBB", Chain: contenthub.ChainZora,
		Info:    contenthub.Fields{"type": "publication"},
	})
	assert.Equal(t, "publication", out["type"], "directory answers carry their own type")
}

func TestMergeFailed(t *testing.T) {
	rec := contenthub.ContentRecord{Address: "0xAA", Chain: contenthub.ChainBase, Type: contenthub.TypeBook, Name: "Curated"}

	out := contenthub.MergeFailed(rec, errors.New("rpc unavailable"))
	assert.Equal(t, true, out[contenthub.FieldFromRegistry])
	assert.Equal(t, "rpc unavailable", out[contenthub.FieldBlockchainFetchError])
	assert.Equal(t, "Curated", out["name"])
	assert.False(t, contenthub.IsDegraded(out))
}

// Identity fields of a registered address always equal the registry's,
// whatever the tracker reports.
func TestMerge_RegistryPrecedence(t *testing.T) {
	chain := rapid.SampledFrom(contenthub.SupportedChains)
	kind := rapid.SampledFrom([]contenthub.ContentType{contenthub.TypeBook, contenthub.TypeNFT, contenthub.TypePublication})
	str := rapid.StringMatching(`[a-z0-9]{0,8}`)

	rapid.Check(t, func(rt *rapid.T) {
		rec := &contenthub.ContentRecord{
			Address: "0x" + str.Draw(rt, "address"),
			Chain:   chain.Draw(rt, "recordChain"),
			Type:    kind.Draw(rt, "recordType"),
		}
		info := contenthub.Fields{}
		for _, k := range []string{"address", "chain", "type", "name"} {
			if rapid.Bool().Draw(rt, "has_"+k) {
				info[k] = str.Draw(rt, k)
			}
		}
		out := contenthub.Merge(rec, contenthub.ResolvedContent{
			Address: str.Draw(rt, "resolvedAddress"),
			Chain:   chain.Draw(rt, "resolvedChain"),
			Type:    kind.Draw(rt, "resolvedType"),
			Info:    info,
		})

		assert.Equal(rt, rec.Address, out["address"])
		assert.Equal(rt, string(rec.Chain), out["chain"])
		assert.Equal(rt, string(rec.Type), out["type"])
	})
}
