package qr

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"qrd/internal/structures"
)

func newTestDecoder() *Decoder {
	return NewDecoder(&structures.Config{
		Decoder: structures.DecoderConfig{
			MaxWorkingDim: 800,
			FetchTimeout:  2 * time.Second,
		},
	}, &qrTestLogger{})
}

func encodeFixture(t *testing.T, fields map[string]interface{}, size int) []byte {
	t.Helper()
	enc := newTestEncoder()
	out, err := enc.Encode(GenerateRequest{Payload: structured(fields), Size: size})
	assert.NoError(t, err)
	return out.Raster
}

func TestDecode_RoundTrip(t *testing.T) {
	raster := encodeFixture(t, map[string]interface{}{"asset_id": "A1", "type": "bolt"}, 400)

	dec := newTestDecoder()
	out, err := dec.Decode(raster)
	assert.NoError(t, err)
	assert.True(t, out.Payload.IsStructured())
	assert.Equal(t, "A1", out.Payload.AssetID())
	assert.Equal(t, `{"asset_id":"A1","type":"bolt"}`, string(out.Canonical))
	assert.Equal(t, Fingerprint(out.Canonical), out.Fingerprint)
	assert.GreaterOrEqual(t, out.Confidence, 0.1)
	assert.LessOrEqual(t, out.Confidence, 1.0)
}

func TestDecode_RoundTripFingerprintMatchesEncoder(t *testing.T) {
	enc := newTestEncoder()
	issued, err := enc.Encode(GenerateRequest{
		Payload: structured(map[string]interface{}{"asset_id": "PUMP-7", "site": "north"}),
		Size:    400,
	})
	assert.NoError(t, err)

	out, err := newTestDecoder().Decode(issued.Raster)
	assert.NoError(t, err)
	assert.Equal(t, issued.Fingerprint, out.Fingerprint)
}

func TestDecode_LargeImageIsDownscaled(t *testing.T) {
	// 1200px source exceeds the working dimension; decode must still succeed.
	raster := encodeFixture(t, map[string]interface{}{"asset_id": "A1"}, 1200)

	out, err := newTestDecoder().Decode(raster)
	assert.NoError(t, err)
	assert.Equal(t, "A1", out.Payload.AssetID())
}

func TestDecode_BlankImage(t *testing.T) {
	var buf bytes.Buffer
	err := png.Encode(&buf, uniformImage(color.White, 200, 200))
	assert.NoError(t, err)

	_, err = newTestDecoder().Decode(buf.Bytes())
	assert.True(t, IsKind(err, KindNoCodeFound))
}

func TestDecode_UnreadableBytes(t *testing.T) {
	_, err := newTestDecoder().Decode([]byte("not an image at all"))
	assert.True(t, IsKind(err, KindValidation))
}

func TestFetch(t *testing.T) {
	raster := encodeFixture(t, map[string]interface{}{"asset_id": "A1"}, 256)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(raster)
	}))
	defer srv.Close()

	dec := newTestDecoder()
	data, err := dec.Fetch(context.Background(), srv.URL)
	assert.NoError(t, err)
	assert.Equal(t, raster, data)

	out, err := dec.Decode(data)
	assert.NoError(t, err)
	assert.Equal(t, "A1", out.Payload.AssetID())
}

func TestFetch_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestDecoder().Fetch(context.Background(), srv.URL)
	assert.True(t, IsKind(err, KindValidation))
}

func TestDataURL(t *testing.T) {
	url := DataURL("PNG", []byte{1, 2, 3})
	assert.Equal(t, "data:image/png;base64,AQID", url)
}
