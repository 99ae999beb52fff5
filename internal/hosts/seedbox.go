package hosts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"encbot/internal/config"
)

// Seedbox uploads through a FileBrowser instance and links the public
// share configured on it.
type Seedbox struct {
	cfg config.HostConfig
}

func NewSeedbox(cfg config.HostConfig) *Seedbox { return &Seedbox{cfg: cfg} }

func (s *Seedbox) Name() string  { return NameSeedbox }
func (s *Seedbox) Enabled() bool { return s.cfg.Enabled }

func (s *Seedbox) Upload(ctx context.Context, req Request) (string, error) {
	if !s.cfg.Enabled {
		return "", ErrDisabled
	}
	token, err := s.login(ctx)
	if err != nil {
		return "", fmt.Errorf("seedbox login: %w", err)
	}

	f, err := os.Open(req.Path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	base := strings.TrimRight(s.cfg.URL, "/")
	up, err := http.NewRequestWithContext(ctx, http.MethodPost,
		base+"/api/resources/"+url.PathEscape(req.Name)+"?override=true", f)
	if err != nil {
		return "", err
	}
	up.Header.Set("X-Auth", token)
	if fi, err := f.Stat(); err == nil {
		up.ContentLength = fi.Size()
	}
	resp, err := transferClient.Do(up)
	if err != nil {
		return "", fmt.Errorf("seedbox upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return "", fmt.Errorf("seedbox upload: http %d: %s", resp.StatusCode, excerpt(body))
	}
	return fmt.Sprintf("%s/api/public/dl/%s/%s", base, s.cfg.ShareHash, url.PathEscape(req.Name)), nil
}

// List returns the file names at the share root, directories excluded.
func (s *Seedbox) List(ctx context.Context) ([]string, error) {
	if !s.cfg.Enabled {
		return nil, ErrDisabled
	}
	token, err := s.login(ctx)
	if err != nil {
		return nil, fmt.Errorf("seedbox login: %w", err)
	}
	base := strings.TrimRight(s.cfg.URL, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/resources/", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Auth", token)

	var out struct {
		Items []struct {
			Name  string `json:"name"`
			IsDir bool   `json:"isDir"`
		} `json:"items"`
	}
	if err := doJSON(controlClient, req, &out); err != nil {
		return nil, fmt.Errorf("seedbox list: %w", err)
	}
	names := make([]string, 0, len(out.Items))
	for _, it := range out.Items {
		if !it.IsDir {
			names = append(names, it.Name)
		}
	}
	return names, nil
}

// PublicURL is the share link for a file already on the box.
func (s *Seedbox) PublicURL(name string) string {
	base := strings.TrimRight(s.cfg.URL, "/")
	return fmt.Sprintf("%s/api/public/dl/%s/%s", base, s.cfg.ShareHash, url.PathEscape(name))
}

// login returns a FileBrowser session token; the API answers with the raw
// JWT as the response body.
func (s *Seedbox) login(ctx context.Context) (string, error) {
	creds, _ := json.Marshal(map[string]string{
		"username": s.cfg.User,
		"password": s.cfg.Pass,
	})
	base := strings.TrimRight(s.cfg.URL, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/login", bytes.NewReader(creds))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := controlClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http %d: %s", resp.StatusCode, excerpt(body))
	}
	token := strings.TrimSpace(string(body))
	if token == "" {
		return "", fmt.Errorf("empty token")
	}
	return token, nil
}
