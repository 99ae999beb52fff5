// Package config wires Viper with the config file, environment, defaults,
// and flag bindings, and snapshots the result into a typed Settings struct.
package config

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"encbot/internal/dirs"
)

// Init sets up the Viper search path, env prefix, defaults, and root flag
// bindings. Non-fatal: errors are returned for optional handling.
func Init(root *cobra.Command) error {
	if cfgDir, err := dirs.ConfigDir(); err == nil {
		_ = dirs.Ensure(cfgDir)
		viper.AddConfigPath(cfgDir)
	}
	viper.AddConfigPath(".")
	viper.SetConfigName("encbot") // supports encbot.{yaml|yml|json|toml}

	viper.SetEnvPrefix("ENCBOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if root != nil {
		_ = viper.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level"))
		_ = viper.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))
	}

	// Read config file if present (ignore not found).
	_ = viper.ReadInConfig()
	return nil
}

func setDefaults() {
	viper.SetDefault("owner_id", 0)
	viper.SetDefault("log_level", "info")

	// External binaries.
	viper.SetDefault("bin.ffmpeg", "ffmpeg")
	viper.SetDefault("bin.ffprobe", "ffprobe")
	viper.SetDefault("bin.downloader", "yt-dlp")
	viper.SetDefault("bin.rclone", "rclone")

	// Encoding defaults.
	viper.SetDefault("encode.font_name", "Arial")
	viper.SetDefault("encode.font_size", 15)
	viper.SetDefault("encode.margin_v", 25)
	viper.SetDefault("encode.bold", true)
	viper.SetDefault("encode.crf", "26")

	// Watermark.
	viper.SetDefault("watermark.enabled", true)
	viper.SetDefault("watermark.text", "")
	viper.SetDefault("watermark.duration", 30)
	viper.SetDefault("watermark.font", "/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf")

	viper.SetDefault("download.timeout", 30*time.Minute)

	// Hosts. Disabled hosts report "skipped" in fanouts.
	viper.SetDefault("seedbox.enabled", false)
	viper.SetDefault("seedbox.url", "")
	viper.SetDefault("seedbox.user", "")
	viper.SetDefault("seedbox.pass", "")
	viper.SetDefault("seedbox.share_hash", "")
	viper.SetDefault("gdrive.enabled", false)
	viper.SetDefault("gdrive.remote", "gdrive")
	viper.SetDefault("gdrive.folder", "Encode")
	viper.SetDefault("mirrored.enabled", false)
	viper.SetDefault("mirrored.api_key", "")
	viper.SetDefault("mirrored.mirrors", "megaupnet,buzzheavier,krakenfiles,gofileio,onefichier")
	viper.SetDefault("buzzheavier.enabled", false)
	viper.SetDefault("buzzheavier.account_id", "")
	viper.SetDefault("gofile.enabled", false)
	viper.SetDefault("gofile.token", "")
	viper.SetDefault("filepress.enabled", false)
	viper.SetDefault("filepress.domain", "https://new3.filepress.cloud")
	viper.SetDefault("filepress.api_key", "")
	viper.SetDefault("turbovid.enabled", false)
	viper.SetDefault("turbovid.api_key", "")
	viper.SetDefault("abyss.enabled", false)
	viper.SetDefault("abyss.api_key", "")
	viper.SetDefault("vidhide.enabled", false)
	viper.SetDefault("vidhide.api_key", "")
	viper.SetDefault("vidhide.domain", "minochinos.com")

	viper.SetDefault("http.listen", "127.0.0.1:8642")
	viper.SetDefault("http.enabled", true)
}

// HostConfig is the per-host credential block.
type HostConfig struct {
	Enabled   bool
	URL       string
	User      string
	Pass      string
	ShareHash string
	APIKey    string
	Token     string
	AccountID string
	Domain    string
	Remote    string
	Folder    string
	Mirrors   string
}

// Settings is a typed snapshot of the viper state.
type Settings struct {
	OwnerID int64

	FFmpegPath     string
	FFprobePath    string
	DownloaderPath string
	RclonePath     string

	FontName string
	FontSize int
	MarginV  int
	Bold     bool
	CRF      string

	WatermarkEnabled  bool
	WatermarkText     string
	WatermarkDuration int
	WatermarkFont     string

	DownloadTimeout time.Duration

	Seedbox     HostConfig
	GDrive      HostConfig
	Mirrored    HostConfig
	Buzzheavier HostConfig
	Gofile      HostConfig
	FilePress   HostConfig
	TurboVid    HostConfig
	Abyss       HostConfig
	VidHide     HostConfig

	HTTPEnabled bool
	HTTPListen  string
}

// Load snapshots the current viper state.
func Load() Settings {
	return Settings{
		OwnerID: viper.GetInt64("owner_id"),

		FFmpegPath:     viper.GetString("bin.ffmpeg"),
		FFprobePath:    viper.GetString("bin.ffprobe"),
		DownloaderPath: viper.GetString("bin.downloader"),
		RclonePath:     viper.GetString("bin.rclone"),

		FontName: viper.GetString("encode.font_name"),
		FontSize: viper.GetInt("encode.font_size"),
		MarginV:  viper.GetInt("encode.margin_v"),
		Bold:     viper.GetBool("encode.bold"),
		CRF:      viper.GetString("encode.crf"),

		WatermarkEnabled:  viper.GetBool("watermark.enabled"),
		WatermarkText:     viper.GetString("watermark.text"),
		WatermarkDuration: viper.GetInt("watermark.duration"),
		WatermarkFont:     viper.GetString("watermark.font"),

		DownloadTimeout: viper.GetDuration("download.timeout"),

		Seedbox: HostConfig{
			Enabled:   viper.GetBool("seedbox.enabled"),
			URL:       viper.GetString("seedbox.url"),
			User:      viper.GetString("seedbox.user"),
			Pass:      viper.GetString("seedbox.pass"),
			ShareHash: viper.GetString("seedbox.share_hash"),
		},
		GDrive: HostConfig{
			Enabled: viper.GetBool("gdrive.enabled"),
			Remote:  viper.GetString("gdrive.remote"),
			Folder:  viper.GetString("gdrive.folder"),
		},
		Mirrored: HostConfig{
			Enabled: viper.GetBool("mirrored.enabled"),
			APIKey:  viper.GetString("mirrored.api_key"),
			Mirrors: viper.GetString("mirrored.mirrors"),
		},
		Buzzheavier: HostConfig{
			Enabled:   viper.GetBool("buzzheavier.enabled"),
			AccountID: viper.GetString("buzzheavier.account_id"),
		},
		Gofile: HostConfig{
			Enabled: viper.GetBool("gofile.enabled"),
			Token:   viper.GetString("gofile.token"),
		},
		FilePress: HostConfig{
			Enabled: viper.GetBool("filepress.enabled"),
			Domain:  viper.GetString("filepress.domain"),
			APIKey:  viper.GetString("filepress.api_key"),
		},
		TurboVid: HostConfig{
			Enabled: viper.GetBool("turbovid.enabled"),
			APIKey:  viper.GetString("turbovid.api_key"),
		},
		Abyss: HostConfig{
			Enabled: viper.GetBool("abyss.enabled"),
			APIKey:  viper.GetString("abyss.api_key"),
		},
		VidHide: HostConfig{
			Enabled: viper.GetBool("vidhide.enabled"),
			APIKey:  viper.GetString("vidhide.api_key"),
			Domain:  viper.GetString("vidhide.domain"),
		},

		HTTPEnabled: viper.GetBool("http.enabled"),
		HTTPListen:  viper.GetString("http.listen"),
	}
}
