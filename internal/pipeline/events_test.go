package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodePayload_StrictJSON(t *testing.T) {
	data := []byte(`{"status":"processing","message":"rasterizing pages","progress":42.5,"dbId":"db-7"}`)

	p := DecodePayload(data)
	assert.Equal(t, "processing", p.Status)
	assert.Equal(t, "rasterizing pages", p.Message)
	assert.Equal(t, 42.5, p.Progress)
	assert.Equal(t, "db-7", p.DBID)
	assert.Equal(t, string(data), p.Raw)
}

func TestDecodePayload_QuoteWrappedJSON(t *testing.T) {
	data := []byte(`"{\"status\":\"complete\",\"dbId\":\"db-9\",\"analysisComplete\":true}"`)

	p := DecodePayload(data)
	assert.Equal(t, "complete", p.Status)
	assert.Equal(t, "db-9", p.DBID)
	assert.True(t, p.AnalysisComplete)
}

func TestDecodePayload_QuotedPlainString(t *testing.T) {
	p := DecodePayload([]byte(`"still working"`))
	assert.Equal(t, "still working", p.Message)
	assert.Empty(t, p.Status)
}

func TestDecodePayload_OpaqueText(t *testing.T) {
	p := DecodePayload([]byte("  backend hiccup  "))
	assert.Equal(t, "backend hiccup", p.Message)
	assert.Equal(t, "  backend hiccup  ", p.Raw)
}

func TestDecodePayload_EmptyObject(t *testing.T) {
	p := DecodePayload([]byte(`{}`))
	assert.Empty(t, p.Status)
	assert.Empty(t, p.Message)
}
