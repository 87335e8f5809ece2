package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/velora-app/velora/internal/api"
	"github.com/velora-app/velora/internal/config"
	"github.com/velora-app/velora/internal/db"
	"github.com/velora-app/velora/internal/middleware"
	"github.com/velora-app/velora/internal/quiz"
	"github.com/velora-app/velora/internal/services"
	"github.com/velora-app/velora/internal/utils"
)

const (
	pruneInterval = 10 * time.Minute
	// Sessions idle past this are marked abandoned and dropped from memory.
	sessionMaxIdle = 30 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	catalog, err := quiz.LoadCatalogFile(cfg.QuestionsPath)
	if err != nil {
		log.Fatalf("load questions: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}

	router := api.NewRouter(api.RouterConfig{
		Store:      store,
		Catalog:    catalog,
		PricingURL: cfg.PricingURL,
		Payments:   services.NewStripeClient(cfg.StripeLiveKey, cfg.StripeTestKey),
		Mailer:     services.NewMailer(cfg.ResendAPIKey, cfg.EmailFrom),
		Tracking:   services.NewTrackingService(cfg.PixelEndpoint, cfg.PixelAccessToken),
	})

	if err := router.Auth().EnsureAdmin(cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	go func() {
		for range time.Tick(pruneInterval) {
			if n := router.Flow().Prune(sessionMaxIdle); n > 0 {
				log.Printf("pruned %d idle sessions", n)
			}
		}
	}()

	mux := http.NewServeMux()
	router.Register(mux)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		locale := middleware.LocaleFromContext(r.Context())
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":         true,
			"name":       "Velora API",
			"locale":     locale,
			"msg":        utils.T(locale, "health.ok"),
			"commit":     cfg.Commit,
			"build_time": cfg.BuildTime,
		})
	})

	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"commit":     cfg.Commit,
			"build_time": cfg.BuildTime,
		})
	})

	// Frontend serving strategy (priority):
	// 1) Static files if VELORA_STATIC_DIR is set (fullstack image)
	// 2) Dev proxy if VELORA_DEV_FRONTEND_URL is set (proxy / to Vite dev)
	if cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
	} else if cfg.DevFrontendURL != "" {
		if u, err := url.Parse(cfg.DevFrontendURL); err == nil {
			rp := httputil.NewSingleHostReverseProxy(u)
			// Ensure no-store headers also apply to proxied responses
			rp.ModifyResponse = func(res *http.Response) error {
				res.Header.Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
				res.Header.Set("Pragma", "no-cache")
				res.Header.Set("Expires", "0")
				return nil
			}
			mux.Handle("/", rp)
		} else {
			log.Printf("invalid VELORA_DEV_FRONTEND_URL=%q: %v", cfg.DevFrontendURL, err)
		}
	}

	handler := middleware.NoStore(
		middleware.SecureHeaders(
			middleware.CORS(
				middleware.LocaleMiddleware(
					middleware.WithAuth(mux)))))

	log.Printf("Velora server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func openStore(cfg *config.Config) (api.Store, error) {
	if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	conn, err := sql.Open("sqlite3", "file:"+cfg.SQLitePath+"?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(conn, cfg.MigrationsDir); err != nil {
		return nil, err
	}
	return db.NewStore(conn)
}
