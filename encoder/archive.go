package encoder

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"murmur/log"
)

// Save compresses a finished capture buffer to FLAC and writes it under
// dir with a unique name. Returns the written path.
func Save(dir string, pcm []byte) (string, error) {
	if len(pcm) < 2 {
		return "", fmt.Errorf("recording too short to archive")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create recordings dir: %w", err)
	}

	enc, err := NewFlac()
	if err != nil {
		return "", err
	}

	samples := SamplesFromPCM(pcm)
	for i := 0; i < len(samples); i += BlockSize {
		end := i + BlockSize
		if end > len(samples) {
			end = len(samples)
		}
		if err := enc.EncodeBlock(samples[i:end]); err != nil {
			return "", err
		}
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("finalizing flac stream: %w", err)
	}

	name := fmt.Sprintf("%s-%s.flac", time.Now().Format("20060102-150405"), uuid.NewString()[:8])
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, enc.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write recording: %w", err)
	}

	log.Infof("archived recording %s (%d samples, %d bytes, encode %s)",
		name, enc.TotalFrames(), len(enc.Bytes()), enc.EncodeTime())
	return path, nil
}
