package providers

import (
	"fmt"
	"github.com/spf13/viper"
	"path/filepath"
	"strings"
	"time"
	"wikistats/internal/structures"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.BindEnv("logger.level", "WIKISTATS_LOG_LEVEL")
	viper.BindEnv("wikipedia.apiBaseUrl", "WIKISTATS_API_BASE_URL")
	viper.BindEnv("wikipedia.restBaseUrl", "WIKISTATS_REST_BASE_URL")
	viper.BindEnv("wikipedia.userAgent", "WIKISTATS_USER_AGENT")
	viper.BindEnv("cache.enabled", "WIKISTATS_CACHE_ENABLED")
	viper.BindEnv("cache.size", "WIKISTATS_CACHE_SIZE")
	viper.BindEnv("cache.dir", "WIKISTATS_CACHE_DIR")
	viper.BindEnv("snapshot.dir", "WIKISTATS_SNAPSHOT_DIR")

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

	conf.AppName = "WikiStats"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	applyDefaults(&conf)

	return &conf, nil
}

func applyDefaults(conf *structures.Config) {
	if conf.Wikipedia.MaxAttempts <= 0 {
		conf.Wikipedia.MaxAttempts = 3
	}
	if conf.Cache.TTL <= 0 {
		conf.Cache.TTL = 6 * time.Hour
	}
	if conf.Cache.CleanupInterval <= 0 {
		conf.Cache.CleanupInterval = 30 * time.Minute
	}
}
