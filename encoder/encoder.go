// Package encoder compresses captured audio to FLAC for the optional
// recordings archive.
package encoder

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

// SamplesFromPCM converts raw S16LE bytes to int16 samples. A trailing
// odd byte is dropped.
func SamplesFromPCM(pcm []byte) []int16 {
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(uint16(pcm[i*2]) | uint16(pcm[i*2+1])<<8)
	}
	return samples
}
