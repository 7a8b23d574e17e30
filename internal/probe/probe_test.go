package probe

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutput(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want CodecInfo
	}{
		{
			name: "hevc main 10",
			out:  "hevc\nMain 10\nyuv420p10le\n",
			want: CodecInfo{Codec: "hevc", Profile: "Main 10", PixelFormat: "yuv420p10le"},
		},
		{
			name: "h264 high",
			out:  "h264\nHigh\nyuv420p\n",
			want: CodecInfo{Codec: "h264", Profile: "High", PixelFormat: "yuv420p"},
		},
		{
			name: "vp9 without profile or pix_fmt",
			out:  "vp9\n",
			want: CodecInfo{Codec: "vp9", Profile: UnknownField, PixelFormat: UnknownField},
		},
		{
			name: "dotted codec name is normalized",
			out:  "H.264\nMain\nyuv420p\r\n",
			want: CodecInfo{Codec: "h264", Profile: "Main", PixelFormat: "yuv420p"},
		},
		{
			name: "blank codec line becomes sentinel",
			out:  "\nHigh\nyuv420p\n",
			want: CodecInfo{Codec: UnknownCodec, Profile: "High", PixelFormat: "yuv420p"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOutput([]byte(tt.out))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOutput_Empty(t *testing.T) {
	for _, out := range []string{"", "\n", "  \n\n"} {
		_, err := ParseOutput([]byte(out))
		assert.Error(t, err, "output %q", out)
	}
}

func TestNormalizeCodec(t *testing.T) {
	assert.Equal(t, "h264", NormalizeCodec(" H.264 "))
	assert.Equal(t, "h265", NormalizeCodec("h-265"))
	assert.Equal(t, "hevc", NormalizeCodec("HEVC"))
}

func TestMatches(t *testing.T) {
	h264 := CodecInfo{Codec: "h264"}
	unknown := CodecInfo{Codec: UnknownCodec}

	tests := []struct {
		name     string
		info     CodecInfo
		expected string
		skip     bool
		want     bool
	}{
		{"exact", h264, "h264", false, true},
		{"expected is normalized", h264, "H.264", false, true},
		{"mismatch", h264, "hevc", false, false},
		{"skip accepts mismatch", h264, "hevc", true, true},
		{"unknown never matches", unknown, "unknown", false, false},
		{"skip accepts unknown", unknown, "h264", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.info, tt.expected, tt.skip))
		})
	}
}

func TestBitDepth(t *testing.T) {
	assert.Equal(t, 8, CodecInfo{PixelFormat: "yuv420p"}.BitDepth())
	assert.Equal(t, 10, CodecInfo{PixelFormat: "yuv420p10le"}.BitDepth())
	assert.Equal(t, 12, CodecInfo{PixelFormat: "yuv444p12le"}.BitDepth())
	assert.Equal(t, 0, CodecInfo{PixelFormat: UnknownField}.BitDepth())
}

func TestArgs(t *testing.T) {
	args := Args("/in/a.mkv")
	assert.Equal(t, "/in/a.mkv", args[len(args)-1])
	assert.Contains(t, args, "stream=codec_name,profile,pix_fmt")
	assert.Contains(t, args, "v:0")
}

func TestFFprobe_MissingBinary(t *testing.T) {
	p := &FFprobe{Path: filepath.Join(t.TempDir(), "no-ffprobe"), Timeout: time.Second}
	_, err := p.Probe(context.Background(), "/in/a.mkv")

	var pe *ProbeError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "/in/a.mkv", pe.Path)
}

func TestFFprobe_Timeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script")
	}
	bin := filepath.Join(t.TempDir(), "ffprobe")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\nexec sleep 5\n"), 0o755))

	p := &FFprobe{Path: bin, Timeout: 200 * time.Millisecond}
	start := time.Now()
	_, err := p.Probe(context.Background(), "/in/a.mkv")

	var pe *ProbeError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "/in/a.mkv", pe.Path)
	assert.Contains(t, err.Error(), "timed out after 200ms")
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestFFprobe_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &FFprobe{Path: filepath.Join(t.TempDir(), "no-ffprobe")}
	_, err := p.Probe(ctx, "/in/a.mkv")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFFprobe_NonMediaFile(t *testing.T) {
	bin, err := exec.LookPath("ffprobe")
	if err != nil {
		t.Skip("ffprobe not installed")
	}
	path := filepath.Join(t.TempDir(), "not-a-video.mkv")
	require.NoError(t, os.WriteFile(path, []byte("this is not a matroska file"), 0o644))

	p := &FFprobe{Path: bin}
	_, err = p.Probe(context.Background(), path)
	var pe *ProbeError
	assert.ErrorAs(t, err, &pe)
}
