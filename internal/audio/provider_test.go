package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFloat32LERoundTrip(t *testing.T) {
	raw := []byte{
		0x00, 0x00, 0x00, 0x00, // 0.0
		0x00, 0x00, 0x80, 0x3f, // 1.0
		0x00, 0x00, 0x80, 0xbf, // -1.0
	}
	got := decodeFloat32LE(raw)
	require.Len(t, got, 3)
	assert.InDelta(t, 0.0, got[0], 1e-9)
	assert.InDelta(t, 1.0, got[1], 1e-9)
	assert.InDelta(t, -1.0, got[2], 1e-9)
}

func TestTrimToWindow(t *testing.T) {
	p := NewFFmpegProvider()
	samples := make([]float32, 1000)
	for i := range samples {
		samples[i] = float32(i)
	}

	trimmed := p.trimToWindow(samples, 100, 1.0, 2.0)
	require.Len(t, trimmed, 200)
	assert.Equal(t, float32(100), trimmed[0])

	all := p.trimToWindow(samples, 100, 0, 0)
	assert.Len(t, all, 1000)

	pastEnd := p.trimToWindow(samples, 100, 50, 0)
	assert.Nil(t, pastEnd)
}

func TestCheckFFmpegInstallation(t *testing.T) {
	if err := CheckFFmpegInstallation(); err != nil {
		t.Skipf("ffmpeg not available in this environment: %v", err)
	}
}
