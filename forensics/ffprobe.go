package forensics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ForensicMetadata holds container-level facts about an uploaded audio file.
// Numeric fields are nil when the container does not declare them; a nil field
// must propagate to the caller as "unknown", never as zero.
type ForensicMetadata struct {
	Filename        string   `json:"filename"`
	DurationSeconds *float64 `json:"duration_seconds"`
	SampleRateHz    *int     `json:"sample_rate_hz"`
	BitDepth        *int     `json:"bit_depth"`
	ChannelCount    *int     `json:"channel_count"`
	CodecName       *string  `json:"codec_name"`
	FileSizeBytes   int64    `json:"file_size_bytes"`
	ContentHash     string   `json:"content_hash"`
}

// ExtractionError reports that the container-inspection tool could not be
// invoked or did not produce parseable output. Missing metadata fields are not
// extraction errors.
type ExtractionError struct {
	Op  string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("forensics: %s: %v", e.Op, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Extractor wraps an external ffprobe binary. It never decodes or transforms
// audio; it only reads the container descriptor.
type Extractor struct {
	ffprobePath string
	tempDir     string // empty means the OS default
}

// NewExtractor builds an Extractor for the given ffprobe binary path.
func NewExtractor(ffprobePath, tempDir string) *Extractor {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Extractor{ffprobePath: ffprobePath, tempDir: tempDir}
}

// Extract writes data to a uniquely named temp file, inspects it with ffprobe,
// and returns container metadata plus a sha256 content hash. The temp file is
// removed on every path, including inspection failure.
func (e *Extractor) Extract(ctx context.Context, data []byte, filename string) (*ForensicMetadata, error) {
	meta := &ForensicMetadata{
		Filename:      filepath.Base(filename),
		FileSizeBytes: int64(len(data)),
		ContentHash:   HashBytes(data),
	}

	tmpPath := filepath.Join(tempDirOrDefault(e.tempDir), "audioproof_"+uuid.NewString()+filepath.Ext(filename))
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return nil, &ExtractionError{Op: "write temp file", Err: err}
	}
	defer os.Remove(tmpPath)

	out, err := e.probe(ctx, tmpPath)
	if err != nil {
		return nil, err
	}

	applyProbeOutput(meta, out)
	return meta, nil
}

// HashBytes returns the lowercase hex sha256 of content. The hash depends on
// the bytes only, never the filename.
func HashBytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// probeOutput mirrors the subset of the ffprobe JSON descriptor we read.
type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType     string `json:"codec_type"`
	CodecName     string `json:"codec_name"`
	SampleRate    string `json:"sample_rate"`
	Channels      int    `json:"channels"`
	BitsPerSample int    `json:"bits_per_sample"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

func (e *Extractor) probe(ctx context.Context, path string) (*probeOutput, error) {
	cmd := exec.CommandContext(ctx, e.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		path,
	)
	raw, err := cmd.Output()
	if err != nil && len(raw) == 0 {
		// The binary itself failed to run or produced nothing. A non-zero exit
		// with JSON on stdout (unrecognized container) is handled below.
		return nil, &ExtractionError{Op: "invoke ffprobe", Err: err}
	}

	out, perr := parseProbeOutput(raw)
	if perr != nil {
		return nil, &ExtractionError{Op: "parse ffprobe output", Err: perr}
	}
	return out, nil
}

// parseProbeOutput decodes the ffprobe JSON descriptor. An empty object (no
// recognizable streams) is valid output, not an error.
func parseProbeOutput(raw []byte) (*probeOutput, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return &probeOutput{}, nil
	}
	var out probeOutput
	if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// applyProbeOutput fills the nullable metadata fields from the first audio
// stream and the format section. Fields the descriptor omits stay nil.
func applyProbeOutput(meta *ForensicMetadata, out *probeOutput) {
	for i := range out.Streams {
		s := &out.Streams[i]
		if s.CodecType != "audio" {
			continue
		}
		if s.CodecName != "" {
			codec := s.CodecName
			meta.CodecName = &codec
		}
		if s.SampleRate != "" {
			if rate, err := strconv.Atoi(s.SampleRate); err == nil && rate >= 0 {
				meta.SampleRateHz = &rate
			}
		}
		if s.Channels > 0 {
			ch := s.Channels
			meta.ChannelCount = &ch
		}
		if s.BitsPerSample > 0 {
			// ffprobe reports 0 for codecs without a fixed sample width; that
			// means unknown, not 0 bits.
			bits := s.BitsPerSample
			meta.BitDepth = &bits
		}
		break
	}

	if out.Format.Duration != "" {
		if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil && d >= 0 {
			meta.DurationSeconds = &d
		}
	}
}

func tempDirOrDefault(dir string) string {
	if dir != "" {
		return dir
	}
	return os.TempDir()
}
