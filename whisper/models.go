package whisper

import (
	"os"
	"path/filepath"
	"strings"
)

// Model files follow the ggml naming convention: ggml-<id>-<quant>.bin.
const (
	DefaultModel = "large-v3-turbo"
	DefaultQuant = "q5_0"
)

// ModelInfo describes one known model preset.
type ModelInfo struct {
	ID    string
	Quant string
	// SizeMB is approximate, for the doctor report.
	SizeMB int
}

// Catalog lists the model presets the app ships instructions for.
var Catalog = []ModelInfo{
	{ID: "small", Quant: "q5_0", SizeMB: 190},
	{ID: "large-v3-turbo", Quant: "q5_0", SizeMB: 574},
}

// Filename returns the on-disk name for a model id and quantization.
func Filename(id, quant string) string {
	return "ggml-" + id + "-" + quant + ".bin"
}

// ModelPath joins the models directory with the conventional filename.
func ModelPath(dir, id, quant string) string {
	return filepath.Join(dir, Filename(id, quant))
}

// Available returns the catalog entries whose files exist under dir.
func Available(dir string) []ModelInfo {
	var found []ModelInfo
	for _, m := range Catalog {
		if _, err := os.Stat(ModelPath(dir, m.ID, m.Quant)); err == nil {
			found = append(found, m)
		}
	}
	return found
}

// modelIDFromPath recovers the model id from a conventional filename;
// unconventional names pass through as the bare filename.
func modelIDFromPath(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, ".bin")
	name = strings.TrimPrefix(name, "ggml-")
	// Strip a trailing quantization suffix when present.
	if i := strings.LastIndex(name, "-q"); i > 0 {
		rest := name[i+1:]
		if len(rest) >= 2 && rest[1] >= '0' && rest[1] <= '9' {
			name = name[:i]
		}
	}
	return name
}
