package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductsRoundTrip(t *testing.T) {
	in := []Product{
		{ID: 1, Name: "Cap", Price: d("12.50"), Image: "cap.jpg", CategoryID: 1},
		{ID: 3, Name: "Mug", Price: d("0.99"), Image: "mug.jpg", CategoryID: 2},
	}

	out, err := DecodeProducts(EncodeProducts(in))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 1, out[0].ID)
	assert.True(t, out[0].Price.Equal(d("12.50")), "price = %s", out[0].Price)
	assert.True(t, out[1].Price.Equal(d("0.99")), "price = %s", out[1].Price)
}

func TestPriceEncodedAsNumberToken(t *testing.T) {
	data := EncodeProducts([]Product{{ID: 1, Name: "Cap", Price: d("12.50"), Image: "i", CategoryID: 1}})
	assert.Contains(t, string(data), `"price":12.5`)
	assert.NotContains(t, string(data), `"price":"`)
}

func TestDecodeProductsAcceptsStringPrice(t *testing.T) {
	out, err := DecodeProducts([]byte(`[{"id":1,"name":"Cap","price":"3.25","image":"i","category_id":1}]`))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].Price.Equal(d("3.25")))
}

func TestDecodeProductsSkipsUnknownKeys(t *testing.T) {
	out, err := DecodeProducts([]byte(`[{"id":1,"name":"Cap","price":1,"image":"i","category_id":1,"extra":{"a":[1,2]}}]`))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Cap", out[0].Name)
}

func TestSeedRoundTrip(t *testing.T) {
	in := SeedData{
		Categories: []Category{{ID: 1, Name: "Clothing"}},
		Products:   []Product{{ID: 1, Name: "Cap", Price: d("10"), Image: "i", CategoryID: 1}},
	}

	out, err := DecodeSeed(EncodeSeed(in))
	require.NoError(t, err)
	assert.Len(t, out.Categories, 1)
	assert.Len(t, out.Products, 1)
}

func TestDecodeSeedMissingKeys(t *testing.T) {
	out, err := DecodeSeed([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, out.Categories)
	assert.Empty(t, out.Products)
}

func TestDecodeProductsMalformed(t *testing.T) {
	_, err := DecodeProducts([]byte(`{"not":"an array"}`))
	require.Error(t, err)
}
