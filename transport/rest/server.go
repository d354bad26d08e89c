package rest

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/rocketscienceinc/tictactoe-web/internal/entity"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

type gameUseCase interface {
	GetGame(ctx context.Context, sessionID string) (*entity.GameView, error)
	ApplyMove(ctx context.Context, sessionID string, cell int) (*entity.GameView, error)
	JumpTo(ctx context.Context, sessionID string, index int) (*entity.GameView, error)
	Reset(ctx context.Context, sessionID string) (*entity.GameView, error)
}

type Server struct {
	logger *slog.Logger
	game   gameUseCase

	celebration time.Duration
	sessionTTL  time.Duration
	page        *template.Template

	srv *http.Server
}

// New builds the HTTP server. celebration is how long the confetti overlay
// stays up after a win; the page refreshes itself when it ends. The session
// cookie lives for sessionTTL after the last request.
func New(logger *slog.Logger, game gameUseCase, celebration, sessionTTL time.Duration) *Server {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionCookieTTL
	}

	server := &Server{
		logger:      logger.With("component", "http"),
		game:        game,
		celebration: celebration,
		sessionTTL:  sessionTTL,
		page: template.Must(template.New("index.html").
			Funcs(templateFuncs).
			ParseFS(templateFS, "templates/index.html")),
	}

	server.srv = &http.Server{
		Handler:      server.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	return server
}

// Router wires every endpoint behind the session middleware.
func (that *Server) Router() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/ping", PingHandler).Methods(http.MethodGet)

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(fmt.Errorf("static assets are not embedded: %w", err))
	}
	router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	pages := router.NewRoute().Subrouter()
	pages.Use(that.sessionMiddleware)
	pages.HandleFunc("/", that.handlePage).Methods(http.MethodGet)
	pages.HandleFunc("/cells/{cell}", that.handleCell).Methods(http.MethodPost)
	pages.HandleFunc("/history/{index}", that.handleJump).Methods(http.MethodPost)
	pages.HandleFunc("/reset", that.handleReset).Methods(http.MethodPost)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(that.sessionMiddleware)
	api.HandleFunc("/game", that.handleGetGame).Methods(http.MethodGet)
	api.HandleFunc("/game/moves", that.handleAPIMove).Methods(http.MethodPost)
	api.HandleFunc("/game/jump", that.handleAPIJump).Methods(http.MethodPost)
	api.HandleFunc("/game/reset", that.handleAPIReset).Methods(http.MethodPost)

	return router
}

// Start - starts HTTP server. It blocks until Shutdown is called.
func (that *Server) Start(port string) error {
	that.srv.Addr = ":" + port

	if err := that.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) Shutdown(ctx context.Context) error {
	if err := that.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
