package ytdlp

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Locate finds an executable on PATH or next to the running binary.
// A configured path wins when it exists.
func Locate(name, configured string) (string, error) {
	if configured != "" {
		if path, err := exec.LookPath(configured); err == nil {
			return path, nil
		}
		return "", fmt.Errorf("%s not found at %s", name, configured)
	}
	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}
	execPath, err := os.Executable()
	if err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), name)
		if runtime.GOOS == "windows" {
			candidate += ".exe"
		}
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s not found in PATH, please install manually", name)
}

func EnsureYtdlp(configured string) (string, error) {
	return Locate("yt-dlp", configured)
}

func EnsureFFmpeg(configured string) (string, error) {
	return Locate("ffmpeg", configured)
}
