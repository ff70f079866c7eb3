package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"unifm/cache"
	"unifm/config"
	"unifm/core/artwork"
	"unifm/core/auth"
	"unifm/core/library"
	"unifm/core/netease"
	"unifm/core/session"
	"unifm/core/stream"
	"unifm/db"
	"unifm/logger"
	"unifm/repository"
	"unifm/storage"
)

// Start wires the application together and runs the HTTP server until a
// shutdown signal arrives.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
	})

	auth.Configure(cfg.JWTSecret, cfg.JWTTTL)

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.CloseDB()

	if err := db.InitDB(); err != nil {
		logger.Fatal("Failed to initialize database schema", logger.ErrorField(err))
	}

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("Failed to connect GORM", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := db.MigrateMirrorTables(); err != nil {
		logger.Fatal("Failed to migrate mirror tables", logger.ErrorField(err))
	}

	if err := cache.ConnectRedis(cfg); err != nil {
		logger.Fatal("Failed to connect to Redis", logger.ErrorField(err))
	}
	defer cache.CloseRedis()

	if cfg.MinioEnabled {
		if err := storage.InitMinio(cfg); err != nil {
			logger.Fatal("Failed to initialize object storage", logger.ErrorField(err))
		}
	}

	// Provider session, restored from Redis so a restart keeps the login.
	sess := session.NewStore(session.NewRedisKV(cache.RedisClient))
	if err := sess.Load(context.Background()); err != nil {
		logger.Warn("Failed to restore provider session", logger.ErrorField(err))
	}

	provider := netease.NewClient(cfg.NeteaseAPIURL, cfg.NeteaseQuality, cfg.NeteaseRatePerSec, sess)

	catalogRepo := repository.NewMySQLCatalogRepository(db.DB)
	mirrorRepo := repository.NewMirrorRepository(db.GormDB)
	userRepo := repository.NewMySQLUserRepository(db.DB)

	hub := NewEventHub()
	syncer := library.NewSyncer(provider, mirrorRepo, catalogRepo, sess, cfg.NeteaseUID)
	syncer.SetNotifier(hub)
	if cfg.MinioEnabled {
		syncer.SetArtworkMirror(artwork.NewMirror(cfg.MinioBucket))
	}

	// Streaming proxy: the player talks to 127.0.0.1, the proxy talks to the
	// provider CDN. Resolve failures for unavailable songs become 404s.
	resolver := stream.NewResolver(stream.IssuerFunc(func(ctx context.Context, trackID int64) (string, error) {
		url, err := provider.SongURL(ctx, trackID)
		if err != nil {
			if errors.Is(err, netease.ErrSongUnavailable) {
				return "", stream.ErrNotFound
			}
			return "", err
		}
		return url, nil
	}), cfg.StreamURLTTL)

	proxy := stream.NewProxy()
	proxy.Register("netease", resolver)
	if err := proxy.Start(); err != nil {
		logger.Fatal("Failed to start streaming proxy", logger.ErrorField(err))
	}

	apiHandler := NewAPIHandler(catalogRepo, mirrorRepo, userRepo, provider, syncer, proxy, sess, cfg)

	router := mux.NewRouter()
	router.Use(corsMiddleware)

	// Auth
	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)

	// Unified catalog
	router.HandleFunc("/api/songs", apiHandler.GetSongsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/{id}", apiHandler.GetSongHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/{id}/playback", apiHandler.PlaybackURLHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/{id}/lyric", apiHandler.LyricHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/albums", apiHandler.GetAlbumsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/albums/{id}", apiHandler.GetAlbumHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/artists/{id}", apiHandler.GetArtistHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/search", apiHandler.SearchHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/netease/search", apiHandler.NeteaseSearchHandler).Methods(http.MethodGet)

	// Remote mirror and sync (mutating endpoints need an API login)
	router.HandleFunc("/api/playlists", apiHandler.GetRemotePlaylistsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/{id}/tracks", apiHandler.GetRemotePlaylistTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/{id}", apiHandler.AuthMiddleware(apiHandler.DeleteRemotePlaylistHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/sync/all", apiHandler.AuthMiddleware(apiHandler.SyncAllHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/sync/playlists", apiHandler.AuthMiddleware(apiHandler.SyncPlaylistsHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/sync/playlists/{id}", apiHandler.AuthMiddleware(apiHandler.SyncPlaylistTracksHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/sync/events", hub.Handler).Methods(http.MethodGet)

	// Mirrored artwork, served straight out of the object store.
	if cfg.MinioEnabled {
		router.PathPrefix("/covers/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name := strings.TrimPrefix(r.URL.Path, "/")
			ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
			defer cancel()

			obj, err := storage.GetObject(ctx, cfg.MinioBucket, name)
			if err != nil {
				http.Error(w, "cover not found", http.StatusNotFound)
				return
			}
			defer obj.Close()

			w.Header().Set("Content-Type", "image/jpeg")
			w.Header().Set("Cache-Control", "public, max-age=86400")
			if _, err := io.Copy(w, obj); err != nil {
				logger.Warn("Cover serve interrupted", logger.ErrorField(err))
			}
		}).Methods(http.MethodGet)
	}

	// Provider session
	router.HandleFunc("/api/session", apiHandler.SessionStatusHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/session/login", apiHandler.AuthMiddleware(apiHandler.SessionLoginHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/session/logout", apiHandler.AuthMiddleware(apiHandler.SessionLogoutHandler)).Methods(http.MethodPost)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", logger.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", logger.ErrorField(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := proxy.Stop(ctx); err != nil {
		logger.Warn("Streaming proxy shutdown failed", logger.ErrorField(err))
	}
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", logger.ErrorField(err))
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
