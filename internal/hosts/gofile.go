package hosts

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"

	"encbot/internal/config"
)

const gofileAPI = "https://api.gofile.io"

// Gofile asks the API for an upload server, then posts the file there.
type Gofile struct {
	cfg config.HostConfig
	// apiBase and serverBase override the production endpoints in tests;
	// serverBase empty means https://<server>.gofile.io.
	apiBase    string
	serverBase string
}

func NewGofile(cfg config.HostConfig) *Gofile {
	return &Gofile{cfg: cfg, apiBase: gofileAPI}
}

func (g *Gofile) Name() string  { return NameGofile }
func (g *Gofile) Enabled() bool { return g.cfg.Enabled }

func (g *Gofile) Upload(ctx context.Context, req Request) (string, error) {
	if !g.cfg.Enabled {
		return "", ErrDisabled
	}
	server, err := g.pickServer(ctx)
	if err != nil {
		return "", fmt.Errorf("gofile servers: %w", err)
	}
	base := g.serverBase
	if base == "" {
		base = "https://" + server + ".gofile.io"
	}

	f, err := os.Open(req.Path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", req.Name)
		if err == nil {
			_, err = io.Copy(part, f)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/contents/uploadfile", pr)
	if err != nil {
		return "", err
	}
	hreq.Header.Set("Content-Type", mw.FormDataContentType())
	if g.cfg.Token != "" {
		hreq.Header.Set("Authorization", "Bearer "+g.cfg.Token)
	}

	var out struct {
		Status string `json:"status"`
		Data   struct {
			DownloadPage string `json:"downloadPage"`
		} `json:"data"`
	}
	if err := doJSON(transferClient, hreq, &out); err != nil {
		return "", fmt.Errorf("gofile upload: %w", err)
	}
	if out.Status != "ok" || out.Data.DownloadPage == "" {
		return "", fmt.Errorf("gofile upload: status %q", out.Status)
	}
	return out.Data.DownloadPage, nil
}

func (g *Gofile) pickServer(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.apiBase+"/servers", nil)
	if err != nil {
		return "", err
	}
	var out struct {
		Status string `json:"status"`
		Data   struct {
			Servers []struct {
				Name string `json:"name"`
			} `json:"servers"`
		} `json:"data"`
	}
	if err := doJSON(controlClient, req, &out); err != nil {
		return "", err
	}
	if out.Status != "ok" || len(out.Data.Servers) == 0 {
		return "", fmt.Errorf("no upload server available")
	}
	return out.Data.Servers[0].Name, nil
}
