package forensics

import (
	"context"
	"errors"
	"os"
	"testing"
)

const wavDescriptor = `{
	"streams": [
		{
			"codec_type": "audio",
			"codec_name": "pcm_s16le",
			"sample_rate": "44100",
			"channels": 2,
			"bits_per_sample": 16
		}
	],
	"format": {
		"duration": "12.300000",
		"size": "1084972"
	}
}`

func TestApplyProbeOutput_AudioStream(t *testing.T) {
	t.Parallel()

	out, err := parseProbeOutput([]byte(wavDescriptor))
	if err != nil {
		t.Fatalf("parseProbeOutput error: %v", err)
	}

	meta := &ForensicMetadata{Filename: "test.wav", FileSizeBytes: 1084972}
	applyProbeOutput(meta, out)

	if meta.CodecName == nil || *meta.CodecName != "pcm_s16le" {
		t.Fatalf("codec = %v, want pcm_s16le", meta.CodecName)
	}
	if meta.SampleRateHz == nil || *meta.SampleRateHz != 44100 {
		t.Fatalf("sample rate = %v, want 44100", meta.SampleRateHz)
	}
	if meta.ChannelCount == nil || *meta.ChannelCount != 2 {
		t.Fatalf("channels = %v, want 2", meta.ChannelCount)
	}
	if meta.BitDepth == nil || *meta.BitDepth != 16 {
		t.Fatalf("bit depth = %v, want 16", meta.BitDepth)
	}
	if meta.DurationSeconds == nil || *meta.DurationSeconds != 12.3 {
		t.Fatalf("duration = %v, want 12.3", meta.DurationSeconds)
	}
}

func TestApplyProbeOutput_NoRecognizableStream(t *testing.T) {
	t.Parallel()

	// ffprobe against a non-audio file: empty descriptor, non-zero exit.
	out, err := parseProbeOutput([]byte("{}\n"))
	if err != nil {
		t.Fatalf("parseProbeOutput error: %v", err)
	}

	meta := &ForensicMetadata{Filename: "readme.txt", FileSizeBytes: 42, ContentHash: HashBytes([]byte("x"))}
	applyProbeOutput(meta, out)

	if meta.DurationSeconds != nil || meta.SampleRateHz != nil || meta.BitDepth != nil ||
		meta.ChannelCount != nil || meta.CodecName != nil {
		t.Fatalf("expected all nullable fields nil, got %+v", meta)
	}
	if meta.Filename == "" || meta.FileSizeBytes != 42 || meta.ContentHash == "" {
		t.Fatalf("filename/size/hash must survive: %+v", meta)
	}
}

func TestApplyProbeOutput_UnknownBitDepthStaysNil(t *testing.T) {
	t.Parallel()

	// Lossy codecs report bits_per_sample 0, which means unknown.
	descriptor := `{"streams":[{"codec_type":"audio","codec_name":"mp3","sample_rate":"48000","channels":2,"bits_per_sample":0}],"format":{"duration":"3.5"}}`
	out, err := parseProbeOutput([]byte(descriptor))
	if err != nil {
		t.Fatalf("parseProbeOutput error: %v", err)
	}

	meta := &ForensicMetadata{}
	applyProbeOutput(meta, out)
	if meta.BitDepth != nil {
		t.Fatalf("bit depth should be nil for 0 bits_per_sample, got %d", *meta.BitDepth)
	}
	if meta.SampleRateHz == nil || *meta.SampleRateHz != 48000 {
		t.Fatalf("sample rate = %v, want 48000", meta.SampleRateHz)
	}
}

func TestApplyProbeOutput_SkipsVideoStreams(t *testing.T) {
	t.Parallel()

	descriptor := `{"streams":[{"codec_type":"video","codec_name":"h264"},{"codec_type":"audio","codec_name":"aac","sample_rate":"44100","channels":1}]}`
	out, err := parseProbeOutput([]byte(descriptor))
	if err != nil {
		t.Fatalf("parseProbeOutput error: %v", err)
	}

	meta := &ForensicMetadata{}
	applyProbeOutput(meta, out)
	if meta.CodecName == nil || *meta.CodecName != "aac" {
		t.Fatalf("codec = %v, want aac (first audio stream)", meta.CodecName)
	}
}

func TestParseProbeOutput_Garbage(t *testing.T) {
	t.Parallel()

	if _, err := parseProbeOutput([]byte("not json at all")); err == nil {
		t.Fatal("expected error for unparseable descriptor")
	}
}

func TestHashBytes_StableAcrossFilenames(t *testing.T) {
	t.Parallel()

	content := []byte("identical audio bytes")
	a := HashBytes(content)
	b := HashBytes(content)
	if a != b {
		t.Fatalf("hash not stable: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}

	other := HashBytes([]byte("different audio bytes"))
	if other == a {
		t.Fatal("different content produced identical hash")
	}
}

func TestExtract_MissingBinaryIsExtractionError(t *testing.T) {
	t.Parallel()

	e := NewExtractor("/nonexistent/ffprobe-binary", t.TempDir())
	_, err := e.Extract(context.Background(), []byte("bytes"), "clip.wav")
	if err == nil {
		t.Fatal("expected error when ffprobe cannot be invoked")
	}
	var exErr *ExtractionError
	if !errors.As(err, &exErr) {
		t.Fatalf("expected *ExtractionError, got %T: %v", err, err)
	}
}

func TestExtract_TempFileRemovedOnFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	e := NewExtractor("/nonexistent/ffprobe-binary", dir)
	_, _ = e.Extract(context.Background(), []byte("bytes"), "clip.wav")

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("temp dir not empty after failed extraction: %d entries", len(entries))
	}
}
