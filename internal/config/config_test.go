package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDSPValidates(t *testing.T) {
	require.NoError(t, DefaultDSP().Validate())
}

func TestDSPValidateRejectsBadTopWavelets(t *testing.T) {
	d := DefaultDSP()
	d.TopWavelets = d.Rows*d.Cols + 1
	assert.Error(t, d.Validate())

	d = DefaultDSP()
	d.TopWavelets = 0
	assert.Error(t, d.Validate())
}

func TestDSPValidateRejectsBadFrequencyRange(t *testing.T) {
	d := DefaultDSP()
	d.MinFreqHz = 2000
	d.MaxFreqHz = 318
	assert.Error(t, d.Validate())
}

func TestDSPValidateRejectsBadSimilarity(t *testing.T) {
	d := DefaultDSP()
	d.MinSimilarity = 1.5
	assert.Error(t, d.Validate())
}

func TestDSPValidateRejectsBadQueryStride(t *testing.T) {
	d := DefaultDSP()
	d.QueryStride = "random"
	assert.Error(t, d.Validate())
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	os.Setenv("SOUNDFP_SAMPLE_RATE", "44100")
	os.Setenv("SOUNDFP_TOP_WAVELETS", "64")
	os.Setenv("SOUNDFP_QUERY_STRIDE", "static")
	defer os.Unsetenv("SOUNDFP_SAMPLE_RATE")
	defer os.Unsetenv("SOUNDFP_TOP_WAVELETS")
	defer os.Unsetenv("SOUNDFP_QUERY_STRIDE")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 44100, cfg.DSP.SampleRate)
	assert.Equal(t, 64, cfg.DSP.TopWavelets)
	assert.Equal(t, "static", cfg.DSP.QueryStride)
}

func TestLoadRejectsNonIntegerSampleRate(t *testing.T) {
	os.Setenv("SOUNDFP_SAMPLE_RATE", "not-a-number")
	defer os.Unsetenv("SOUNDFP_SAMPLE_RATE")

	_, err := Load()
	assert.Error(t, err)
}
