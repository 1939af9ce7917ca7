package server

// DatasetServerConfig holds dataset and index store configuration
type DatasetServerConfig struct {
	Path         string              `mapstructure:"path"          yaml:"path"`
	DatabaseFile string              `mapstructure:"database_file" yaml:"database_file"`
	PageSize     int                 `mapstructure:"page_size"     yaml:"page_size"`
	SQLite       DatasetSQLiteConfig `mapstructure:"sqlite"        yaml:"sqlite"`
}

// DatasetSQLiteConfig holds SQLite-specific configuration
type DatasetSQLiteConfig struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}
