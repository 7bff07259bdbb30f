// Package audio implements C10, a default Provider for the core's
// audio-provider contract (spec §6): decode an arbitrary source to
// mono float32 PCM at a requested sample rate. Compressed/arbitrary
// formats and remote sources go through an ffmpeg subprocess, exactly
// as the rest of this stack shells out to ffmpeg for loudness
// normalization and transcoding; local canonical WAV files are parsed
// directly with go-audio/wav, avoiding the subprocess when it isn't
// needed.
package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strings"

	"github.com/go-audio/wav"

	fperrors "github.com/zfogg/soundfp/internal/errors"
)

// Provider is the core's audio-provider contract.
type Provider interface {
	// ReadMonoSamples returns samples from source resampled to
	// sampleRate, starting at startSeconds for lengthSeconds (0 means
	// "to end of source").
	ReadMonoSamples(ctx context.Context, source string, sampleRate int, startSeconds, lengthSeconds float64) ([]float32, error)
}

// FFmpegProvider shells out to ffmpeg/ffprobe, the same external
// dependency the rest of this stack's audio pipeline relies on.
type FFmpegProvider struct{}

// NewFFmpegProvider builds the default Provider.
func NewFFmpegProvider() *FFmpegProvider {
	return &FFmpegProvider{}
}

// ReadMonoSamples decodes source (a local path or any URL scheme
// ffmpeg understands) to mono float32 PCM at sampleRate. Local files
// already in canonical WAV format at the target rate skip the
// subprocess and parse directly.
func (p *FFmpegProvider) ReadMonoSamples(ctx context.Context, source string, sampleRate int, startSeconds, lengthSeconds float64) ([]float32, error) {
	if samples, ok := p.tryDirectWAV(source, sampleRate); ok {
		return p.trimToWindow(samples, sampleRate, startSeconds, lengthSeconds), nil
	}

	args := []string{}
	if startSeconds > 0 {
		args = append(args, "-ss", fmt.Sprintf("%f", startSeconds))
	}
	args = append(args, "-i", source)
	if lengthSeconds > 0 {
		args = append(args, "-t", fmt.Sprintf("%f", lengthSeconds))
	}
	args = append(args,
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"-loglevel", "error",
		"-",
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fperrors.ProviderFailuref(err, "ffmpeg decode failed: %s", stderr.String())
	}
	return decodeFloat32LE(stdout.Bytes()), nil
}

// tryDirectWAV parses a local .wav file without shelling to ffmpeg
// when it's already mono at the requested rate. It returns ok=false
// (never an error) for anything that doesn't match, so the caller
// falls back to the ffmpeg path.
func (p *FFmpegProvider) tryDirectWAV(source string, sampleRate int) ([]float32, bool) {
	if !strings.HasSuffix(strings.ToLower(source), ".wav") {
		return nil, false
	}
	f, err := os.Open(source)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, false
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil || buf == nil {
		return nil, false
	}
	if int(dec.SampleRate) != sampleRate || dec.NumChans != 1 {
		return nil, false
	}
	out := make([]float32, len(buf.Data))
	max := float32(int(1) << uint(buf.SourceBitDepth-1))
	for i, s := range buf.Data {
		out[i] = float32(s) / max
	}
	return out, true
}

func (p *FFmpegProvider) trimToWindow(samples []float32, sampleRate int, startSeconds, lengthSeconds float64) []float32 {
	start := int(startSeconds * float64(sampleRate))
	if start < 0 {
		start = 0
	}
	if start > len(samples) {
		return nil
	}
	samples = samples[start:]
	if lengthSeconds > 0 {
		n := int(lengthSeconds * float64(sampleRate))
		if n < len(samples) {
			samples = samples[:n]
		}
	}
	return samples
}

func decodeFloat32LE(raw []byte) []float32 {
	n := len(raw) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
		out[i] = math.Float32frombits(bits)
	}
	return out
}

// CheckFFmpegInstallation verifies ffmpeg and ffprobe are on PATH,
// mirroring the rest of this stack's startup sanity check.
func CheckFFmpegInstallation() error {
	if err := exec.Command("ffmpeg", "-version").Run(); err != nil {
		return fperrors.ProviderFailuref(err, "ffmpeg not found on PATH")
	}
	if err := exec.Command("ffprobe", "-version").Run(); err != nil {
		return fperrors.ProviderFailuref(err, "ffprobe not found on PATH")
	}
	return nil
}
