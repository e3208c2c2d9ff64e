package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/notefield/notefield/backend-go/internal/api"
	"github.com/notefield/notefield/backend-go/internal/auth"
	"github.com/notefield/notefield/backend-go/internal/board"
	"github.com/notefield/notefield/backend-go/internal/collab"
	"github.com/notefield/notefield/backend-go/internal/config"
	"github.com/notefield/notefield/backend-go/internal/engine"
	mw "github.com/notefield/notefield/backend-go/internal/middleware"
	"github.com/notefield/notefield/backend-go/internal/store"
)

// playgroundBoardID is the anonymous demo board. It lives in memory only and
// never touches Postgres.
const playgroundBoardID = "board_playground"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	pg := store.NewPGStore(pool)

	authService := auth.NewService(pg, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	boardService := api.NewService(pg)
	boardHandler := api.NewHandler(boardService)

	saver := store.NewDebouncedSaver(cfg.SaveDebounce, pg.SaveNote)

	engineCfg := engine.Config{
		MinScale:      cfg.MinScale,
		MaxScale:      cfg.MaxScale,
		CullMargin:    cfg.CullMargin,
		MaxObjects:    cfg.QuadMaxObjects,
		MaxDepth:      cfg.QuadMaxDepth,
		FullAbove:     cfg.LODFullAbove,
		AbstractBelow: cfg.LODAbstract,
	}
	// Server-side managers render nothing themselves; the viewport only seeds
	// the primary camera. Collaborator culling goes through VisibleFor with
	// each client's own camera.
	defaultViewport := engine.Size{Width: 1920, Height: 1080}

	newManager := func(ctx context.Context, boardID string) (*board.Manager, error) {
		eng := engine.New(engineCfg, defaultViewport, engine.Listeners{})

		var st board.Store = pg
		var sv board.Saver = saver
		if boardID == playgroundBoardID {
			mem := store.NewMemoryStore()
			st = mem
			sv = store.NewDebouncedSaver(cfg.SaveDebounce, mem.SaveNote)
		}

		m := board.NewManager(boardID, eng, st, sv)
		if err := m.Load(ctx); err != nil {
			return nil, err
		}
		return m, nil
	}

	hub := collab.NewHub(newManager)
	go hub.Run()

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.AllowedOrigins))

	// Auth routes (public)
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Protected API routes
	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(authService.AuthMiddleware)

	apiRouter.HandleFunc("/boards", boardHandler.List).Methods("GET")
	apiRouter.HandleFunc("/boards", boardHandler.Create).Methods("POST")
	apiRouter.HandleFunc("/boards/{boardId}", boardHandler.Get).Methods("GET")
	apiRouter.HandleFunc("/boards/{boardId}", boardHandler.Delete).Methods("DELETE")
	apiRouter.HandleFunc("/boards/{boardId}/notes", boardHandler.ListNotes).Methods("GET")
	apiRouter.HandleFunc("/boards/{boardId}/export", boardHandler.Export).Methods("GET")

	// WebSocket endpoint
	r.HandleFunc("/ws/board/{boardId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, pg, cfg.AllowedOrigins)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop the hub, then flush pending note saves before the pool closes.
		hub.Stop()
		saver.Close()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, authSvc *auth.Service, pg *store.PGStore, allowedOrigins string) {
	boardID := mux.Vars(r)["boardId"]

	var userID string
	var displayName string

	if boardID == playgroundBoardID {
		// Anonymous user for the playground
		userID = "anon-" + uuid.New().String()[:8]
		displayName = "Anonymous"
	} else {
		// Auth via query param for real boards
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		var err error
		userID, err = authSvc.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		b, err := pg.GetBoard(r.Context(), boardID)
		if err != nil {
			http.Error(w, "board not found", http.StatusNotFound)
			return
		}
		if b.OwnerID != userID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		user, err := authSvc.GetUser(r.Context(), userID)
		if err != nil {
			http.Error(w, "user not found", http.StatusInternalServerError)
			return
		}
		displayName = user.DisplayName
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(allowedOrigins),
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := collab.NewClient(hub, conn, userID, displayName, boardID, clientID)

	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}

// originPatterns turns the configured comma-separated origin list into the
// host patterns the websocket library matches against.
func originPatterns(allowedOrigins string) []string {
	var patterns []string
	for _, origin := range strings.Split(allowedOrigins, ",") {
		origin = strings.TrimSpace(origin)
		origin = strings.TrimPrefix(origin, "https://")
		origin = strings.TrimPrefix(origin, "http://")
		if origin != "" {
			patterns = append(patterns, origin)
		}
	}
	return patterns
}
