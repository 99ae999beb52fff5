// Package deps locates the external binaries the pipeline shells out to.
package deps

import (
	"fmt"
	"os"
	"os/exec"
)

// find resolves name as a path or via PATH lookup.
func find(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}
	if p, err := exec.LookPath(name); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("could not find %q in PATH", name)
}

// FindDownloader returns the path to yt-dlp (or youtube-dl as fallback).
func FindDownloader(configured string) (string, error) {
	if configured != "" && configured != "yt-dlp" {
		return find(configured)
	}
	if p, err := exec.LookPath("yt-dlp"); err == nil {
		return p, nil
	}
	if p, err := exec.LookPath("youtube-dl"); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("could not find yt-dlp or youtube-dl in PATH")
}

// FindFFmpeg returns the path to the ffmpeg binary.
func FindFFmpeg(configured string) (string, error) {
	if configured == "" {
		configured = "ffmpeg"
	}
	return find(configured)
}

// FindFFprobe returns the path to the ffprobe binary.
func FindFFprobe(configured string) (string, error) {
	if configured == "" {
		configured = "ffprobe"
	}
	return find(configured)
}

// FindRclone returns the path to the rclone binary. Only needed when the
// Drive host is enabled.
func FindRclone(configured string) (string, error) {
	if configured == "" {
		configured = "rclone"
	}
	return find(configured)
}
