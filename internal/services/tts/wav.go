package tts

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// WAVDuration returns the playback length in seconds of a PCM WAV payload.
// Streaming servers often write 0 or 0xFFFFFFFF as the data size; in that case
// the remaining payload length is used.
func WAVDuration(data []byte) (float64, error) {
	if len(data) < 12 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return 0, errors.New("not a RIFF/WAVE payload")
	}
	var byteRate uint32
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		body := offset + 8
		switch id {
		case "fmt ":
			if body+16 > len(data) {
				return 0, errors.New("truncated fmt chunk")
			}
			byteRate = binary.LittleEndian.Uint32(data[body+8 : body+12])
		case "data":
			if byteRate == 0 {
				return 0, errors.New("data chunk before fmt chunk")
			}
			remaining := uint32(len(data) - body)
			if size == 0 || size > remaining {
				size = remaining
			}
			return float64(size) / float64(byteRate), nil
		}
		next := body + int(size)
		if size%2 == 1 {
			next++
		}
		if next <= offset {
			break
		}
		offset = next
	}
	return 0, fmt.Errorf("no data chunk found")
}
