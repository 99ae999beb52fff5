package hosts

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"encbot/internal/config"
)

const turbovidAPI = "https://api.turboviplay.com"

// TurboVid is an embed host: it remote-ingests the seedbox link and only
// accepts 1080p.
type TurboVid struct {
	cfg  config.HostConfig
	base string
}

func NewTurboVid(cfg config.HostConfig) *TurboVid {
	return &TurboVid{cfg: cfg, base: turbovidAPI}
}

func (t *TurboVid) Name() string  { return NameTurboVid }
func (t *TurboVid) Enabled() bool { return t.cfg.Enabled }

func (t *TurboVid) Upload(ctx context.Context, req Request) (string, error) {
	if !t.cfg.Enabled {
		return "", ErrDisabled
	}
	if req.Resolution != Resolution1080 {
		return "", ErrNotEligible
	}
	if req.SeedboxURL == "" {
		return "", &DependencyError{Host: NameTurboVid, Dep: NameSeedbox}
	}

	u := fmt.Sprintf("%s/uploadUrl?keyApi=%s&url=%s&newTitle=%s",
		t.base, url.QueryEscape(t.cfg.APIKey), url.QueryEscape(req.SeedboxURL), url.QueryEscape(req.Name))
	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	var out struct {
		VideoID string `json:"videoID"`
	}
	if err := doJSON(controlClient, hreq, &out); err != nil {
		return "", fmt.Errorf("turbovid upload: %w", err)
	}
	if out.VideoID == "" {
		return "", fmt.Errorf("turbovid upload: no video id in response")
	}
	return "https://turbovidhls.com/t/" + out.VideoID, nil
}
