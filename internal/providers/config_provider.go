package providers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"qrd/internal/structures"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.BindEnv("logger.level", "QRD_LOG_LEVEL")
	viper.BindEnv("persistence.saveInterval", "QRD_SAVE_INTERVAL")
	viper.BindEnv("store.driver", "QRD_STORE_DRIVER")
	viper.BindEnv("store.sqlitePath", "QRD_SQLITE_PATH")
	viper.BindEnv("registry.baseUrl", "QRD_REGISTRY_URL")
	viper.BindEnv("cache.enabled", "QRD_CACHE_ENABLED")
	viper.BindEnv("cache.size", "QRD_CACHE_SIZE")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "QRCodeDaemon"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
