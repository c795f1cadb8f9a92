package media

import (
	"bytes"
	"encoding/binary"
)

func makePCM16WAV(samples []int16, sampleRate int) []byte {
	const channels, bytesPerSample = 1, 2
	dataSize := len(samples) * bytesPerSample

	buf := new(bytes.Buffer)
	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(4+(8+16)+(8+dataSize)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	for _, v := range []any{
		uint32(16),
		uint16(wavPCM),
		uint16(channels),
		uint32(sampleRate),
		uint32(sampleRate * channels * bytesPerSample),
		uint16(channels * bytesPerSample),
		uint16(16),
	} {
		_ = binary.Write(buf, binary.LittleEndian, v)
	}

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(dataSize))
	_ = binary.Write(buf, binary.LittleEndian, samples)

	return buf.Bytes()
}
