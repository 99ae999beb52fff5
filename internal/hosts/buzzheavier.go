package hosts

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"encbot/internal/config"
)

const (
	buzzheavierAPI  = "https://buzzheavier.com"
	buzzheavierData = "https://w.buzzheavier.com"
)

// Buzzheavier streams the file into the account's root directory.
type Buzzheavier struct {
	cfg      config.HostConfig
	apiBase  string
	dataBase string
	linkBase string
}

func NewBuzzheavier(cfg config.HostConfig) *Buzzheavier {
	return &Buzzheavier{
		cfg:      cfg,
		apiBase:  buzzheavierAPI,
		dataBase: buzzheavierData,
		linkBase: buzzheavierAPI,
	}
}

func (b *Buzzheavier) Name() string  { return NameBuzzheavier }
func (b *Buzzheavier) Enabled() bool { return b.cfg.Enabled }

func (b *Buzzheavier) Upload(ctx context.Context, req Request) (string, error) {
	if !b.cfg.Enabled {
		return "", ErrDisabled
	}
	rootID, err := b.rootDir(ctx)
	if err != nil {
		return "", fmt.Errorf("buzzheavier fs: %w", err)
	}

	f, err := os.Open(req.Path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	put, err := http.NewRequestWithContext(ctx, http.MethodPut,
		b.dataBase+"/"+rootID+"/"+url.PathEscape(req.Name), f)
	if err != nil {
		return "", err
	}
	put.Header.Set("Authorization", "Bearer "+b.cfg.AccountID)
	if fi, err := f.Stat(); err == nil {
		put.ContentLength = fi.Size()
	}

	var out struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := doJSON(transferClient, put, &out); err != nil {
		return "", fmt.Errorf("buzzheavier upload: %w", err)
	}
	if out.Data.ID == "" {
		return "", fmt.Errorf("buzzheavier upload: no file id in response")
	}
	return strings.TrimRight(b.linkBase, "/") + "/" + out.Data.ID, nil
}

func (b *Buzzheavier) rootDir(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.apiBase+"/api/fs", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+b.cfg.AccountID)
	var out struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := doJSON(controlClient, req, &out); err != nil {
		return "", err
	}
	if out.Data.ID == "" {
		return "", fmt.Errorf("no root directory id")
	}
	return out.Data.ID, nil
}
