package media

import (
	"encoding/binary"
	"errors"
	"math"
)

var (
	ErrUnsupportedWAV = errors.New("unsupported wav format")
	ErrInvalidWAV     = errors.New("invalid wav file")
)

const (
	wavPCM   = 1
	wavFloat = 3
)

type SilenceMetrics struct {
	RMSdBFS  float64
	PeakdBFS float64
	Samples  int64
}

// IsSilent reports whether a WAV blob is quiet enough to skip the upload.
// The peak may sit up to 6 dB above the RMS threshold. Non-WAV blobs are
// never considered silent.
func (b Blob) IsSilent(thresholdDBFS float64) (bool, SilenceMetrics, error) {
	if b.Ext() != ".wav" {
		return false, SilenceMetrics{}, nil
	}

	metrics, err := AnalyzeWAV(b.Data)
	if err != nil {
		return false, SilenceMetrics{}, err
	}

	if metrics.Samples == 0 || math.IsInf(metrics.PeakdBFS, -1) {
		return true, metrics, nil
	}

	return metrics.RMSdBFS <= thresholdDBFS && metrics.PeakdBFS <= thresholdDBFS+6, metrics, nil
}

type wavFormat struct {
	audioFormat   uint16
	bitsPerSample uint16
}

// AnalyzeWAV measures RMS and peak level of an in-memory WAV file.
func AnalyzeWAV(data []byte) (SilenceMetrics, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return SilenceMetrics{}, ErrInvalidWAV
	}

	var (
		format  *wavFormat
		samples []byte
	)

	for off := 12; off+8 <= len(data); {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		end := body + size
		if end > len(data) {
			// Truncated final chunk; recorders that were killed mid-write
			// leave these behind.
			end = len(data)
		}

		switch id {
		case "fmt ":
			if end-body < 16 {
				return SilenceMetrics{}, ErrInvalidWAV
			}
			format = &wavFormat{
				audioFormat:   binary.LittleEndian.Uint16(data[body : body+2]),
				bitsPerSample: binary.LittleEndian.Uint16(data[body+14 : body+16]),
			}
		case "data":
			samples = data[body:end]
		}

		off = body + size + size%2
	}

	if format == nil || samples == nil {
		return SilenceMetrics{}, ErrInvalidWAV
	}

	decode, width, err := sampleDecoder(*format)
	if err != nil {
		return SilenceMetrics{}, err
	}

	var peak, sumSquares float64
	var count int64
	for i := 0; i+width <= len(samples); i += width {
		v := decode(samples[i : i+width])
		peak = math.Max(peak, math.Abs(v))
		sumSquares += v * v
		count++
	}

	if count == 0 {
		return SilenceMetrics{RMSdBFS: math.Inf(-1), PeakdBFS: math.Inf(-1)}, nil
	}

	return SilenceMetrics{
		RMSdBFS:  toDBFS(math.Sqrt(sumSquares / float64(count))),
		PeakdBFS: toDBFS(peak),
		Samples:  count,
	}, nil
}

func sampleDecoder(f wavFormat) (func([]byte) float64, int, error) {
	switch {
	case f.audioFormat == wavPCM && f.bitsPerSample == 8:
		return func(s []byte) float64 { return (float64(s[0]) - 128) / 128 }, 1, nil
	case f.audioFormat == wavPCM && f.bitsPerSample == 16:
		return func(s []byte) float64 {
			return float64(int16(binary.LittleEndian.Uint16(s))) / 32768
		}, 2, nil
	case f.audioFormat == wavPCM && f.bitsPerSample == 24:
		return func(s []byte) float64 {
			v := int32(s[0]) | int32(s[1])<<8 | int32(int8(s[2]))<<16
			return float64(v) / 8388608
		}, 3, nil
	case f.audioFormat == wavPCM && f.bitsPerSample == 32:
		return func(s []byte) float64 {
			return float64(int32(binary.LittleEndian.Uint32(s))) / 2147483648
		}, 4, nil
	case f.audioFormat == wavFloat && f.bitsPerSample == 32:
		return func(s []byte) float64 {
			return float64(math.Float32frombits(binary.LittleEndian.Uint32(s)))
		}, 4, nil
	case f.audioFormat == wavFloat && f.bitsPerSample == 64:
		return func(s []byte) float64 {
			return math.Float64frombits(binary.LittleEndian.Uint64(s))
		}, 8, nil
	default:
		return nil, 0, ErrUnsupportedWAV
	}
}

func toDBFS(amplitude float64) float64 {
	if amplitude <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(amplitude)
}
