package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type serviceConfig struct {
	listenAddr     string
	storageGridURL string
	s3Endpoint     string
	bucketRegion   string

	requestTimeout time.Duration
	insecureTLS    bool

	randomPassword  bool
	defaultPassword string
}

// loadConfig reads provisioner.toml (working directory or /etc/storagegrid-provisioner)
// and the PROVISIONER_* environment. An absent storagegrid.url is allowed and
// disables the integration; an absent storagegrid.s3url is a startup error.
func loadConfig() (*serviceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("provisioner")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("provisioner")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/storagegrid-provisioner/")

	v.SetDefault("listen", ":8080")
	v.SetDefault("storagegrid.timeout", "30s")
	v.SetDefault("storagegrid.insecure", false)
	v.SetDefault("storagegrid.region", "")
	v.SetDefault("provision.user.randompass", true)
	v.SetDefault("provision.user.defaultpass", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	s3Endpoint := v.GetString("storagegrid.s3url")
	if s3Endpoint == "" {
		return nil, errors.New("missing required config: storagegrid.s3url")
	}

	return &serviceConfig{
		listenAddr:      v.GetString("listen"),
		storageGridURL:  v.GetString("storagegrid.url"),
		s3Endpoint:      s3Endpoint,
		bucketRegion:    v.GetString("storagegrid.region"),
		requestTimeout:  v.GetDuration("storagegrid.timeout"),
		insecureTLS:     v.GetBool("storagegrid.insecure"),
		randomPassword:  v.GetBool("provision.user.randompass"),
		defaultPassword: v.GetString("provision.user.defaultpass"),
	}, nil
}
