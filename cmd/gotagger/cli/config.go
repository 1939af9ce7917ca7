package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	configName = "gotagger"
	envPrefix  = "GOTAGGER"
)

// configDirs are searched in order for gotagger.yaml and .env files when no
// explicit config file is given.
var configDirs = []string{".", "./config", "/etc/gotagger", "$HOME/.gotagger"}

var envFiles = []string{".env", ".env.local"}

func initConfig(path string) error {
	dirs := configDirs
	if path != "" {
		viper.SetConfigFile(path)
		dirs = []string{".", filepath.Dir(path)}
	} else {
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
		for _, dir := range configDirs {
			viper.AddConfigPath(dir)
		}
	}
	loadEnvFiles(dirs)

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// loadEnvFiles exports every .env file found in dirs. Variables that are
// already set win over the files.
func loadEnvFiles(dirs []string) {
	for _, dir := range dirs {
		for _, name := range envFiles {
			// Missing files are expected
			_ = godotenv.Load(filepath.Join(os.ExpandEnv(dir), name))
		}
	}
}
