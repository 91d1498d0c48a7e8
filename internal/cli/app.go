package cli

import (
	"context"
	"fmt"

	"github.com/cjnlabay/midterm/internal/api"
	"github.com/cjnlabay/midterm/internal/attach"
	"github.com/cjnlabay/midterm/internal/auth"
	"github.com/cjnlabay/midterm/internal/blob"
	"github.com/cjnlabay/midterm/internal/collection"
	"github.com/cjnlabay/midterm/internal/config"
	"github.com/cjnlabay/midterm/internal/db"
	"github.com/cjnlabay/midterm/internal/logger"
	"github.com/cjnlabay/midterm/internal/session"
)

// App wires the client components from the loaded config. One App lives for
// the duration of a command or a TUI session.
type App struct {
	Config  *config.Config
	Session *session.Manager
	Client  *api.Client
	Auth    *auth.Flow
	Users   *collection.Syncer

	db *db.DB
}

// NewApp builds the session store, HTTP client, auth flow and collection
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	store, err := a.sessionStore()
	if err != nil {
		return nil, err
	}
	a.Session = session.NewManager(store)

	a.Client, err = api.NewClient(cfg.ServerURL, a.Session,
		api.WithScheme(api.ParseScheme(cfg.AuthScheme)),
		api.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Auth = auth.NewFlow(a.Client, a.Session)
	a.Auth.Restore(ctx)
	a.Users = collection.NewSyncer(a.Client, a.Session)

	logger.Debug("Client ready",
		logger.F("server", a.Client.BaseURL()),
		logger.F("scheme", cfg.AuthScheme),
		logger.F("session_store", cfg.SessionStore))
	return a, nil
}

func (a *App) sessionStore() (session.Store, error) {
	switch a.Config.SessionStore {
	case config.SessionStoreSQLite:
		d, err := a.database()
		if err != nil {
			return nil, err
		}
		return session.NewKVStore(d.KV()), nil
	default:
		path, err := config.SessionFile()
		if err != nil {
			return nil, err
		}
		return session.NewFileStore(path), nil
	}
}

func (a *App) database() (*db.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	d, err := db.OpenDefault()
	if err != nil {
		logger.Error("Failed to open database", logger.F("error", err))
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.db = d
	return d, nil
}

// Attachments builds the file/image manager over the configured blob backend
func (a *App) Attachments(ctx context.Context) (*attach.Manager, error) {
	d, err := a.database()
	if err != nil {
		return nil, err
	}

	var store blob.Store
	switch a.Config.BlobStore {
	case config.BlobStoreS3:
		s3cfg := a.Config.S3
		store, err = blob.NewS3Store(ctx, blob.S3Options{
			Bucket:    s3cfg.Bucket,
			Region:    s3cfg.Region,
			Endpoint:  s3cfg.Endpoint,
			AccessKey: s3cfg.AccessKey,
			SecretKey: s3cfg.SecretKey,
		})
		if err != nil {
			return nil, err
		}
	default:
		store = blob.NewFSStore(a.Config.BlobDir)
	}

	return attach.NewManager(store, d.KV()), nil
}

// Close releases the local database if it was opened
func (a *App) Close() {
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
}
