package capture

import (
	"encoding/binary"

	"github.com/harunnryd/voxnote/pkg/audio"
	"github.com/harunnryd/voxnote/pkg/errorsx"
)

// wrapPCM finalizes raw 16-bit mono PCM into a WAV container.
func wrapPCM(data []byte, rate int) (audio.EncodedAudio, error) {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	wrapped, err := audio.EncodeWAV(samples, rate)
	if err != nil {
		return audio.EncodedAudio{}, errorsx.Wrap(err, errorsx.ReasonCaptureDevice)
	}
	return audio.EncodedAudio{Data: wrapped, MIME: audio.MIMEWAV}, nil
}
