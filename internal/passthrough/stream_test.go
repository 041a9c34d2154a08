package passthrough

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeStreamRewritesBodylessError(t *testing.T) {
	in := strings.NewReader("event: error\ndata: {\"message\":\"x\"}\n\n")
	var out bytes.Buffer
	require.NoError(t, NormalizeStream(&out, in))
	assert.Equal(t, "event: error\ndata: {\"type\":\"error\",\"error\":{\"message\":\"x\"}}\n\n", out.String())
}

func TestNormalizeStreamConvertsDoneToMessageStop(t *testing.T) {
	in := strings.NewReader("data: [DONE]\n\n")
	var out bytes.Buffer
	require.NoError(t, NormalizeStream(&out, in))
	assert.Equal(t, "event: message_stop\ndata: {\"type\":\"message_stop\"}\n\n", out.String())
}

func TestNormalizeStreamPassesOtherEventsUnchanged(t *testing.T) {
	in := strings.NewReader("event: content_block_delta\ndata: {\"index\":0}\n\n")
	var out bytes.Buffer
	require.NoError(t, NormalizeStream(&out, in))
	assert.Equal(t, "event: content_block_delta\ndata: {\"index\":0}\n\n", out.String())
}

func TestNormalizeStreamLeavesTypedErrorAlone(t *testing.T) {
	in := strings.NewReader("event: error\ndata: {\"type\":\"error\",\"error\":{\"message\":\"x\"}}\n\n")
	var out bytes.Buffer
	require.NoError(t, NormalizeStream(&out, in))
	assert.Equal(t, "event: error\ndata: {\"type\":\"error\",\"error\":{\"message\":\"x\"}}\n\n", out.String())
}
