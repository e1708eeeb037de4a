package util

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ReadConfig loads config.yaml from the working directory (or ./config/)
// and lets DETOUR_* environment variables override file values.
func ReadConfig() error {
	viper.SetConfigName("config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config/")

	viper.SetEnvPrefix("DETOUR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// missing file is fine, env vars and defaults still apply
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("fatal error config file: %w", err)
		}
	}
	return nil
}
