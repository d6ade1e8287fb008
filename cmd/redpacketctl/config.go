package main

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds CLI defaults read from REDPACKET_* variables. Flags override them.
type Config struct {
	APIURL  string        `envconfig:"API_URL" default:"http://localhost:8080"`
	User    string        `envconfig:"USER"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"10s"`
}

func GetConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("redpacket", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
