package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/taskboard/taskboard/internal/authsvc"
	"github.com/taskboard/taskboard/internal/config"
	"github.com/taskboard/taskboard/internal/logging"
	"github.com/taskboard/taskboard/internal/pipeline"
	"github.com/taskboard/taskboard/internal/session"
	"github.com/taskboard/taskboard/internal/store"
	"github.com/taskboard/taskboard/internal/tracker"
	"github.com/taskboard/taskboard/pkg/client"
)

// env holds the collaborators shared by every subcommand.
type env struct {
	cfg     config.Config
	logger  *slog.Logger
	session *session.Manager
	mock    *tracker.Mock

	closers []io.Closer
}

func openEnv(envFiles ...string) (*env, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Home, 0700); err != nil {
		return nil, fmt.Errorf("create %s: %w", cfg.Home, err)
	}

	logger, logFile, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, logger: logger, closers: []io.Closer{logFile}}

	slot, err := e.openSlot()
	if err != nil {
		e.Close() //nolint:errcheck
		return nil, err
	}

	var auth session.Authenticator
	if cfg.UseMock() {
		e.mock = tracker.NewMock(cfg.MockLatency)
		svc, err := mockAuth(logger)
		if err != nil {
			e.Close() //nolint:errcheck
			return nil, err
		}
		auth = svc
	} else {
		auth = client.New(cfg.APIURL, "")
	}

	e.session = session.NewManager(auth, store.WithEnvOverride(slot, cfg.Token), session.WithLogger(logger))
	logger.Debug("env_opened", "slot", cfg.Slot, "mock", cfg.UseMock())
	return e, nil
}

func (e *env) openSlot() (session.Slot, error) {
	if e.cfg.Slot == config.SlotSQLite {
		s, err := store.OpenSQLiteSlot(e.cfg.DBPath())
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, s)
		return s, nil
	}
	return store.NewFileSlot(e.cfg.TokenPath()), nil
}

// mockAuth returns the in-process auth service seeded with the demo user.
func mockAuth(logger *slog.Logger) (*authsvc.Service, error) {
	dir := authsvc.NewDirectory(bcrypt.DefaultCost)
	if err := authsvc.Seed(dir); err != nil {
		return nil, fmt.Errorf("seed users: %w", err)
	}
	return authsvc.NewService(dir, authsvc.WithLogger(logger)), nil
}

// newSource returns the tracker to read tasks from for tok.
func (e *env) newSource(tok session.Token) pipeline.Source {
	if e.mock != nil {
		return e.mock
	}
	return client.New(e.cfg.APIURL, tok.Bearer())
}

func (e *env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i].Close())
	}
	return errors.Join(errs...)
}
