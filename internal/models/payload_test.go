package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePayload_JSONObject(t *testing.T) {
	p := ParsePayload([]byte(`{"asset_id":"A1","type":"bolt"}`))
	assert.True(t, p.IsStructured())
	assert.Equal(t, "A1", p.AssetID())
}

func TestParsePayload_NonJSONFallsBackToRaw(t *testing.T) {
	p := ParsePayload([]byte("https://example.com/a/1"))
	assert.False(t, p.IsStructured())
	assert.Equal(t, []byte("https://example.com/a/1"), p.Raw)
}

func TestParsePayload_JSONArrayIsRaw(t *testing.T) {
	p := ParsePayload([]byte(`[1,2,3]`))
	assert.False(t, p.IsStructured())
}

func TestPayload_Empty(t *testing.T) {
	assert.True(t, Payload{}.Empty())
	assert.False(t, StructuredPayload(map[string]interface{}{"a": "b"}).Empty())
	assert.False(t, ParsePayload([]byte("x")).Empty())
}

func TestPayload_AssetIDKeyOrder(t *testing.T) {
	p := StructuredPayload(map[string]interface{}{
		"serial_number": "SN9",
		"assetId":       "A2",
	})
	assert.Equal(t, "A2", p.AssetID())

	p = StructuredPayload(map[string]interface{}{"serial_number": "SN9"})
	assert.Equal(t, "SN9", p.AssetID())

	p = StructuredPayload(map[string]interface{}{"name": "anything"})
	assert.Equal(t, "", p.AssetID())
}

func TestPayload_AssetIDNumericValue(t *testing.T) {
	p := ParsePayload([]byte(`{"asset_id":12345}`))
	assert.Equal(t, "12345", p.AssetID())
}

func TestCanonical_FieldOrderInvariant(t *testing.T) {
	a := ParsePayload([]byte(`{"b":2,"a":{"y":1,"x":[1,2]},"c":"v"}`))
	b := ParsePayload([]byte(`{"c":"v","a":{"x":[1,2],"y":1},"b":2}`))

	ca, err := a.Canonical()
	assert.NoError(t, err)
	cb, err := b.Canonical()
	assert.NoError(t, err)
	assert.Equal(t, ca, cb)
}

func TestCanonical_SortedKeys(t *testing.T) {
	p := ParsePayload([]byte(`{"z":1,"a":2}`))
	c, err := p.Canonical()
	assert.NoError(t, err)
	assert.Equal(t, `{"a":2,"z":1}`, string(c))
}

func TestCanonical_NumbersKeepTheirForm(t *testing.T) {
	p := ParsePayload([]byte(`{"n":1.50,"m":1000000000000000001}`))
	c, err := p.Canonical()
	assert.NoError(t, err)
	assert.Equal(t, `{"m":1000000000000000001,"n":1.50}`, string(c))
}

func TestCanonical_RawPassthrough(t *testing.T) {
	p := ParsePayload([]byte("plain text"))
	c, err := p.Canonical()
	assert.NoError(t, err)
	assert.Equal(t, []byte("plain text"), c)
}

func TestView_StructuredKeepsFields(t *testing.T) {
	p := ParsePayload([]byte(`{"asset_id":"A1"}`))
	v := p.View()
	assert.Equal(t, "A1", v["asset_id"])
}

func TestView_RawWrappedUnderRawData(t *testing.T) {
	p := ParsePayload([]byte("PLAIN-TEXT-SERIAL-12345"))
	v := p.View()
	assert.Equal(t, map[string]interface{}{"raw_data": "PLAIN-TEXT-SERIAL-12345"}, v)
}

func TestView_EmptyPayloadIsNil(t *testing.T) {
	assert.Nil(t, Payload{}.View())
}
