// Package hosts implements the upload targets a finished encode fans out
// to. Each host speaks its own API; all of them satisfy Uploader.
package hosts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Host names, also used as link keys in history records.
const (
	NameSeedbox     = "seedbox"
	NameGDrive      = "gdrive"
	NameMirrored    = "mirrored"
	NameBuzzheavier = "buzzheavier"
	NameGofile      = "gofile"
	NameFilePress   = "filepress"
	NameTurboVid    = "turbovid"
	NameAbyss       = "abyss"
	NameVidHide     = "vidhide"
)

// Resolution1080 gates the embed hosts; they refuse anything below it.
const Resolution1080 = "1080p"

var (
	// ErrDisabled is returned before any network call when the host is
	// switched off in config.
	ErrDisabled = errors.New("host disabled")
	// ErrNotEligible is returned by embed hosts for non-1080p files.
	ErrNotEligible = errors.New("resolution not eligible")
)

// DependencyError marks an upload that could not start because the host
// it depends on produced no URL.
type DependencyError struct {
	Host string // host that could not run
	Dep  string // host whose URL was missing
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s: missing %s url", e.Host, e.Dep)
}

// Request is one upload order. DriveURL and SeedboxURL carry the resolved
// dependency links for hosts that ingest remotely instead of receiving
// the file body.
type Request struct {
	Path       string // local file
	Name       string // display name the host should show
	Resolution string // 360p .. 1080p
	DriveURL   string
	SeedboxURL string
}

// Uploader is one upload target.
type Uploader interface {
	Name() string
	Enabled() bool
	Upload(ctx context.Context, req Request) (url string, err error)
}

// Control calls (login, finish, remote ingest) are quick; body transfers
// of multi-GB files are not.
var (
	controlClient  = &http.Client{Timeout: 30 * time.Second}
	transferClient = &http.Client{Timeout: time.Hour}
)

// doJSON runs req on client and decodes the response body into v.
// Non-2xx responses become errors carrying a body excerpt.
func doJSON(client *http.Client, req *http.Request, v any) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s: http %d: %s", req.URL.Host, resp.StatusCode, excerpt(body))
	}
	if v == nil {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%s: parse response: %w", req.URL.Host, err)
	}
	return nil
}

func excerpt(b []byte) string {
	const n = 200
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
