// Command vinylog runs the Vinylog music catalogue API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/vinylog/vinylog/internal/account"
	"github.com/vinylog/vinylog/internal/cache"
	"github.com/vinylog/vinylog/internal/comments"
	"github.com/vinylog/vinylog/internal/config"
	"github.com/vinylog/vinylog/internal/db"
	"github.com/vinylog/vinylog/internal/identity"
	"github.com/vinylog/vinylog/internal/lastfm"
	"github.com/vinylog/vinylog/internal/logging"
	"github.com/vinylog/vinylog/internal/spotify"
	"github.com/vinylog/vinylog/internal/status"
	vsync "github.com/vinylog/vinylog/internal/sync"
	"github.com/vinylog/vinylog/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	database, err := db.New(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	if err := database.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}

	queryCache := cache.New(cfg.Cache.SizeMB, cfg.Cache.TTL)

	authClient := spotify.NewAuthClient(spotify.AuthConfig{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RedirectURL:  cfg.Spotify.RedirectURL,
	})
	libraryFactory := func(ctx context.Context, accessToken string) vsync.Library {
		return spotify.NewClient(authClient.HTTPClient(ctx, accessToken))
	}

	server := web.NewServer(web.ServerConfig{Addr: cfg.Server.Addr}, web.Deps{
		Identity: identity.New(database.Users(), database.Sessions(), logger),
		Account:  account.New(database.Users(), database, logger),
		Status:   status.New(database.Favorites(), database.Listened(), queryCache),
		Comments: comments.New(database.Comments(), queryCache, logger),
		Sync:     vsync.New(authClient, libraryFactory, database.Users(), database, queryCache, logger),
		Metadata: lastfm.NewClient(cfg.Lastfm.APIKey, lastfm.WithHTTPClient(&http.Client{Timeout: 10 * time.Second})),
		Library:  web.DBLibrary{Database: database},
		Cache:    queryCache,
	}, logger)

	return server.Run()
}
