package hosts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"encbot/internal/config"
	"encbot/internal/naming"
)

// FilePress ingests a Drive file by id; it never sees the local file, so
// it depends on the gdrive upload having produced a URL.
type FilePress struct {
	cfg config.HostConfig
}

func NewFilePress(cfg config.HostConfig) *FilePress { return &FilePress{cfg: cfg} }

func (f *FilePress) Name() string  { return NameFilePress }
func (f *FilePress) Enabled() bool { return f.cfg.Enabled }

func (f *FilePress) Upload(ctx context.Context, req Request) (string, error) {
	if !f.cfg.Enabled {
		return "", ErrDisabled
	}
	if req.DriveURL == "" {
		return "", &DependencyError{Host: NameFilePress, Dep: NameGDrive}
	}
	fileID := naming.DriveFileID(req.DriveURL)
	if fileID == "" {
		return "", fmt.Errorf("filepress: no file id in %s", req.DriveURL)
	}

	payload, _ := json.Marshal(map[string]any{
		"key":     f.cfg.APIKey,
		"id":      fileID,
		"quality": qualityNumber(req.Resolution),
	})
	base := strings.TrimRight(f.cfg.Domain, "/")
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		base+"/api/v1/file/add", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	hreq.Header.Set("Content-Type", "application/json")

	var out struct {
		Status int    `json:"status"`
		Data   string `json:"data"`
	}
	if err := doJSON(controlClient, hreq, &out); err != nil {
		return "", fmt.Errorf("filepress add: %w", err)
	}
	if out.Status != 200 || out.Data == "" {
		return "", fmt.Errorf("filepress add: status %d", out.Status)
	}
	return base + "/file/" + out.Data, nil
}

// qualityNumber turns "720p" into 720.
func qualityNumber(res string) int {
	n, _ := strconv.Atoi(strings.TrimSuffix(res, "p"))
	return n
}
