package server

import (
	"errors"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/floatlabs/floatchat/internal/argo"
	"github.com/floatlabs/floatchat/internal/chat"
	"github.com/floatlabs/floatchat/internal/store"
)

type Config struct {
	Logger         *slog.Logger
	Clock          clockwork.Clock
	Store          store.Store
	Data           *argo.Service
	Responder      chat.Responder
	AllowedOrigins []string
	Version        string
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.Store == nil {
		return errors.New("store is required")
	}
	if c.Data == nil {
		return errors.New("data service is required")
	}
	if c.Responder == nil {
		return errors.New("responder is required")
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.Version == "" {
		c.Version = "dev"
	}
	return nil
}
