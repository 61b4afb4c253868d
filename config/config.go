// Package config declares the runtime configuration parsed from the
// environment with the YOGA prefix.
package config

import "time"

type Config struct {
	Web   Web
	DB    DB
	Cors  Cors
	Rate  Rate
	Oauth Oauth
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8080"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type DB struct {
	// Driver selects the document store backend: postgres or memory.
	Driver     string `conf:"default:postgres"`
	User       string `conf:"default:postgres"`
	Password   string `conf:"default:postgres,mask"`
	Host       string `conf:"default:localhost"`
	Name       string `conf:"default:yoga"`
	DisableTLS bool   `conf:"default:true"`
}

type Cors struct {
	Origin string
}

type Rate struct {
	Burst       int     `conf:"default:20"`
	ExpiryMins  int     `conf:"default:30"`
	LimitPerSec float64 `conf:"default:10"`
}

type Oauth struct {
	DiscoveryTimeout time.Duration `conf:"default:30s"`
	LoginRedirectURL string        `conf:"default:/"`
	Google           Provider
}

type Provider struct {
	Client      string
	Secret      string `conf:"mask"`
	URL         string `conf:"default:https://accounts.google.com"`
	RedirectURL string
}
