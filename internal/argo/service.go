// Package argo exposes the dataset-level operations over the measurement
// store: whole-dataset statistics, filtered queries, and assembly of the
// context handed to the chat layer.
package argo

import (
	"log/slog"

	"github.com/floatlabs/floatchat/internal/store"
)

type Service struct {
	store store.Store
	log   *slog.Logger
}

func New(s store.Store, log *slog.Logger) *Service {
	return &Service{store: s, log: log}
}
