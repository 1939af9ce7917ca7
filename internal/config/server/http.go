package server

// HTTPServerConfig holds the web UI and API listener configuration
type HTTPServerConfig struct {
	Address     string `mapstructure:"address"       yaml:"address"`
	PublicDir   string `mapstructure:"public_dir"    yaml:"public_dir"`
	OpenBrowser bool   `mapstructure:"open_browser"  yaml:"open_browser"`
	MaxUploadMB int64  `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
}
