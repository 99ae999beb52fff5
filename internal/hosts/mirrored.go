package hosts

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"

	"encbot/internal/config"
)

const mirroredBase = "https://mirrored.to"

// Mirrored uploads once and mirrors across the mirror services listed in
// config, returning one short URL covering all of them.
type Mirrored struct {
	cfg  config.HostConfig
	base string
}

func NewMirrored(cfg config.HostConfig) *Mirrored {
	return &Mirrored{cfg: cfg, base: mirroredBase}
}

func (m *Mirrored) Name() string  { return NameMirrored }
func (m *Mirrored) Enabled() bool { return m.cfg.Enabled }

func (m *Mirrored) Upload(ctx context.Context, req Request) (string, error) {
	if !m.cfg.Enabled {
		return "", ErrDisabled
	}
	server, err := m.uploadInfo(ctx)
	if err != nil {
		return "", fmt.Errorf("mirrored upload info: %w", err)
	}
	fileKey, err := m.send(ctx, server, req)
	if err != nil {
		return "", fmt.Errorf("mirrored upload: %w", err)
	}
	shortURL, err := m.finish(ctx, fileKey)
	if err != nil {
		return "", fmt.Errorf("mirrored finish: %w", err)
	}
	return shortURL, nil
}

func (m *Mirrored) uploadInfo(ctx context.Context) (string, error) {
	u := m.base + "/api/get_upload_info?api_key=" + url.QueryEscape(m.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	var out struct {
		Status string `json:"status"`
		Result struct {
			URL string `json:"url"`
		} `json:"result"`
	}
	if err := doJSON(controlClient, req, &out); err != nil {
		return "", err
	}
	if out.Status != "ok" || out.Result.URL == "" {
		return "", fmt.Errorf("status %q", out.Status)
	}
	return out.Result.URL, nil
}

func (m *Mirrored) send(ctx context.Context, server string, req Request) (string, error) {
	f, err := os.Open(req.Path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("files", req.Name)
		if err == nil {
			_, err = io.Copy(part, f)
		}
		if err == nil {
			err = mw.WriteField("api_key", m.cfg.APIKey)
		}
		if err == nil {
			err = mw.WriteField("mirrors", m.cfg.Mirrors)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, server, pr)
	if err != nil {
		return "", err
	}
	hreq.Header.Set("Content-Type", mw.FormDataContentType())

	var out struct {
		Status string `json:"status"`
		Result struct {
			FileKey string `json:"file_key"`
		} `json:"result"`
	}
	if err := doJSON(transferClient, hreq, &out); err != nil {
		return "", err
	}
	if out.Status != "ok" || out.Result.FileKey == "" {
		return "", fmt.Errorf("status %q", out.Status)
	}
	return out.Result.FileKey, nil
}

func (m *Mirrored) finish(ctx context.Context, fileKey string) (string, error) {
	u := fmt.Sprintf("%s/api/finish_upload?api_key=%s&file_key=%s",
		m.base, url.QueryEscape(m.cfg.APIKey), url.QueryEscape(fileKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	var out struct {
		Status string `json:"status"`
		Result struct {
			ShortURL string `json:"short_url"`
		} `json:"result"`
	}
	if err := doJSON(controlClient, req, &out); err != nil {
		return "", err
	}
	if out.Status != "ok" || out.Result.ShortURL == "" {
		return "", fmt.Errorf("status %q", out.Status)
	}
	return out.Result.ShortURL, nil
}
