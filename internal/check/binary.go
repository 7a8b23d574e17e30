package check

import (
	"fmt"
	"os"
	"os/exec"
)

// Environment variables that pin the tool binaries.
const (
	EnvFFmpeg  = "CODECSHIFT_FFMPEG"
	EnvFFprobe = "CODECSHIFT_FFPROBE"
)

// FindBinary locates an executable by name. Search order:
//  1. configured (tools.ffmpeg / tools.ffprobe), when non-empty
//  2. the environment variable envVar, when set
//  3. ./name in the current directory
//  4. PATH
func FindBinary(name, configured, envVar string) (string, error) {
	if configured != "" {
		if isExecutable(configured) {
			return configured, nil
		}
		return "", fmt.Errorf("configured %s %q is not an executable file", name, configured)
	}

	if envVar != "" {
		if envPath := os.Getenv(envVar); envPath != "" && isExecutable(envPath) {
			return envPath, nil
		}
	}

	localPath := "./" + name
	if isExecutable(localPath) {
		return localPath, nil
	}

	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("binary %s not found", name)
}

// isExecutable checks that path is a regular file with any execute bit set.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0o111 != 0
}
