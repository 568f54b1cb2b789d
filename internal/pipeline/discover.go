package pipeline

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Recognized video file extensions (lowercase, with leading dot).
var videoExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".mkv":  true,
	".flv":  true,
	".wmv":  true,
	".webm": true,
	".m4v":  true,
}

// Discover lists the video files directly inside inputDir (no recursion;
// subdirectories are staging areas, not inputs) and returns their paths
// sorted lexicographically for deterministic processing order.
func Discover(inputDir string) ([]string, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if videoExtensions[ext] {
			files = append(files, filepath.Join(inputDir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
