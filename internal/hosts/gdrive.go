package hosts

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"encbot/internal/config"
	"encbot/internal/runner"
)

// GDrive copies the file to a Drive remote with rclone and resolves the
// shareable URL from the file id.
type GDrive struct {
	cfg        config.HostConfig
	rclonePath string
	run        runner.Runner
	owner      int64
}

func NewGDrive(cfg config.HostConfig, rclonePath string, run runner.Runner, owner int64) *GDrive {
	return &GDrive{cfg: cfg, rclonePath: rclonePath, run: run, owner: owner}
}

func (g *GDrive) Name() string  { return NameGDrive }
func (g *GDrive) Enabled() bool { return g.cfg.Enabled }

func (g *GDrive) Upload(ctx context.Context, req Request) (string, error) {
	if !g.cfg.Enabled {
		return "", ErrDisabled
	}
	remote := g.cfg.Remote + ":" + g.cfg.Folder

	_, err := g.run.Run(ctx, runner.Spec{
		Path:  g.rclonePath,
		Args:  []string{"copy", req.Path, remote},
		Owner: g.owner,
	})
	if err != nil {
		return "", fmt.Errorf("rclone copy: %w", err)
	}

	res, err := g.run.Run(ctx, runner.Spec{
		Path:          g.rclonePath,
		Args:          []string{"lsjson", remote, "--files-only"},
		Owner:         g.owner,
		CaptureStdout: true,
	})
	if err != nil {
		return "", fmt.Errorf("rclone lsjson: %w", err)
	}

	var listing []struct {
		ID   string `json:"ID"`
		Name string `json:"Name"`
	}
	if err := json.Unmarshal(res.Stdout, &listing); err != nil {
		return "", fmt.Errorf("rclone lsjson: parse: %w", err)
	}
	want := filepath.Base(req.Path)
	for _, f := range listing {
		if f.Name == want {
			return "https://drive.google.com/file/d/" + f.ID + "/view?usp=drivesdk", nil
		}
	}
	return "", fmt.Errorf("rclone lsjson: %s not found in %s", want, remote)
}
