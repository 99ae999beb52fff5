package hosts

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"encbot/internal/config"
)

const vidhideAPI = "https://earnvidsapi.com"

// VidHide is an embed host: it remote-ingests the seedbox link and only
// accepts 1080p.
type VidHide struct {
	cfg  config.HostConfig
	base string
}

func NewVidHide(cfg config.HostConfig) *VidHide {
	return &VidHide{cfg: cfg, base: vidhideAPI}
}

func (v *VidHide) Name() string  { return NameVidHide }
func (v *VidHide) Enabled() bool { return v.cfg.Enabled }

func (v *VidHide) Upload(ctx context.Context, req Request) (string, error) {
	if !v.cfg.Enabled {
		return "", ErrDisabled
	}
	if req.Resolution != Resolution1080 {
		return "", ErrNotEligible
	}
	if req.SeedboxURL == "" {
		return "", &DependencyError{Host: NameVidHide, Dep: NameSeedbox}
	}

	u := fmt.Sprintf("%s/api/upload/url?key=%s&url=%s&file_title=%s",
		v.base, url.QueryEscape(v.cfg.APIKey), url.QueryEscape(req.SeedboxURL), url.QueryEscape(req.Name))
	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	var out struct {
		Status int `json:"status"`
		Result struct {
			Filecode string `json:"filecode"`
		} `json:"result"`
	}
	if err := doJSON(controlClient, hreq, &out); err != nil {
		return "", fmt.Errorf("vidhide upload: %w", err)
	}
	if out.Status != 200 || out.Result.Filecode == "" {
		return "", fmt.Errorf("vidhide upload: status %d", out.Status)
	}
	return "https://" + v.cfg.Domain + "/download/" + out.Result.Filecode, nil
}
