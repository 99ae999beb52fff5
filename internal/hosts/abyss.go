package hosts

import (
	"context"
	"fmt"
	"net/http"

	"encbot/internal/config"
	"encbot/internal/naming"
)

const abyssAPI = "https://api.abyss.to"

// Abyss is an embed host: it remote-ingests the Drive file and only
// accepts 1080p.
type Abyss struct {
	cfg  config.HostConfig
	base string
}

func NewAbyss(cfg config.HostConfig) *Abyss {
	return &Abyss{cfg: cfg, base: abyssAPI}
}

func (a *Abyss) Name() string  { return NameAbyss }
func (a *Abyss) Enabled() bool { return a.cfg.Enabled }

func (a *Abyss) Upload(ctx context.Context, req Request) (string, error) {
	if !a.cfg.Enabled {
		return "", ErrDisabled
	}
	if req.Resolution != Resolution1080 {
		return "", ErrNotEligible
	}
	if req.DriveURL == "" {
		return "", &DependencyError{Host: NameAbyss, Dep: NameGDrive}
	}
	fileID := naming.DriveFileID(req.DriveURL)
	if fileID == "" {
		return "", fmt.Errorf("abyss: no file id in %s", req.DriveURL)
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.base+"/v1/remote/"+fileID, nil)
	if err != nil {
		return "", err
	}
	hreq.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)

	var out struct {
		Slug string `json:"slug"`
	}
	if err := doJSON(controlClient, hreq, &out); err != nil {
		return "", fmt.Errorf("abyss remote: %w", err)
	}
	if out.Slug == "" {
		return "", fmt.Errorf("abyss remote: no slug in response")
	}
	return "https://short.icu/" + out.Slug, nil
}
