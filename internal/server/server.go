package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/mealplan/internal/assistant"
	"github.com/dukerupert/mealplan/internal/auth"
	"github.com/dukerupert/mealplan/internal/dish"
	"github.com/dukerupert/mealplan/internal/email"
	"github.com/dukerupert/mealplan/internal/handler"
	"github.com/dukerupert/mealplan/internal/household"
	"github.com/dukerupert/mealplan/internal/menu"
	"github.com/dukerupert/mealplan/internal/middleware"
	"github.com/dukerupert/mealplan/internal/shopping"
	"github.com/dukerupert/mealplan/internal/store"
	ws "github.com/dukerupert/mealplan/internal/websocket"
)

const (
	signInLimit = 10
	chatLimit   = 20
	limitWindow = time.Minute
)

// Config carries what the server needs beyond the database.
type Config struct {
	Verifier       *auth.Verifier
	Email          *email.Client
	Assistant      *assistant.Client
	OriginPatterns []string
}

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	sessionH    *handler.SessionHandler
	householdH  *handler.HouseholdHandler
	dishH       *handler.DishHandler
	menuH       *handler.MenuHandler
	shoppingH   *handler.ShoppingHandler
	chatH       *handler.ChatHandler
	sessions    *store.SessionStore
	users       *store.UserStore
	signInLimit *middleware.RateLimiter
	chatLimit   *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	sessions := store.NewSessionStore(db)
	households := household.NewService(db, cfg.Email, logger.With("component", "household"))
	dishes := dish.NewService(db)
	chat := assistant.New(cfg.Assistant, dishes, logger.With("component", "assistant"))

	return &Server{
		db:          db,
		hub:         hub,
		sessionH:    handler.NewSessionHandler(cfg.Verifier, households, sessions, logger.With("component", "session")),
		householdH:  handler.NewHouseholdHandler(households),
		dishH:       handler.NewDishHandler(dishes, households),
		menuH:       handler.NewMenuHandler(menu.NewService(db), households),
		shoppingH:   handler.NewShoppingHandler(shopping.NewService(db), households),
		chatH:       handler.NewChatHandler(chat, households, hub, cfg.OriginPatterns),
		sessions:    sessions,
		users:       store.NewUserStore(db),
		signInLimit: middleware.NewRateLimiter(signInLimit, limitWindow),
		chatLimit:   middleware.NewRateLimiter(chatLimit, limitWindow),
		logger:      logger,
	}
}

// Hub returns the chat connection hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// Cleanup deletes expired sessions and prunes idle rate-limiter entries.
// Expired invites are left in place; reads filter them out.
func (s *Server) Cleanup(ctx context.Context) {
	if n, err := s.sessions.DeleteExpired(ctx); err != nil {
		s.logger.Error("cleanup expired sessions", "error", err)
	} else if n > 0 {
		s.logger.Info("cleaned up expired sessions", "count", n)
	}
	s.signInLimit.Cleanup()
	s.chatLimit.Cleanup()
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.Handle("POST /auth/session", middleware.RateLimit(s.signInLimit, middleware.RealIP)(http.HandlerFunc(s.sessionH.SignIn)))
	outerMux.HandleFunc("DELETE /auth/session", s.sessionH.SignOut)

	// Protected routes, wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessions, s.users)
	outerMux.Handle("/api/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Household and membership
	mux.HandleFunc("GET /api/household", s.householdH.Get)
	mux.HandleFunc("PUT /api/household", s.householdH.Update)
	mux.HandleFunc("DELETE /api/household/members/{id}", s.householdH.RemoveMember)
	mux.HandleFunc("POST /api/household/invite", s.householdH.CreateInvite)
	mux.HandleFunc("GET /api/household/invite", s.householdH.ListInvites)
	mux.HandleFunc("DELETE /api/household/invite/{id}", s.householdH.CancelInvite)
	mux.HandleFunc("GET /api/household/invite/pending", s.householdH.PendingInvites)
	mux.HandleFunc("DELETE /api/household/invite/pending/{id}", s.householdH.DeclineInvite)
	mux.HandleFunc("POST /api/household/invite/accept", s.householdH.AcceptInvite)

	// Dish library
	mux.HandleFunc("GET /api/dishes", s.dishH.List)
	mux.HandleFunc("POST /api/dishes", s.dishH.Create)
	mux.HandleFunc("GET /api/dishes/{id}", s.dishH.Get)
	mux.HandleFunc("PUT /api/dishes/{id}", s.dishH.Update)
	mux.HandleFunc("DELETE /api/dishes/{id}", s.dishH.Delete)

	// Menu
	mux.HandleFunc("GET /api/menu", s.menuH.List)
	mux.HandleFunc("POST /api/menu", s.menuH.SetMeal)
	mux.HandleFunc("GET /api/menu/{date}", s.menuH.GetDay)
	mux.HandleFunc("DELETE /api/menu/{date}", s.menuH.ClearDay)

	// Shopping list
	mux.HandleFunc("GET /api/shopping", s.shoppingH.List)
	mux.HandleFunc("POST /api/shopping", s.shoppingH.Create)
	mux.HandleFunc("PUT /api/shopping/{id}", s.shoppingH.Update)
	mux.HandleFunc("DELETE /api/shopping/{id}", s.shoppingH.Delete)
	mux.HandleFunc("POST /api/shopping/clear", s.shoppingH.ClearChecked)
	mux.HandleFunc("POST /api/shopping/generate", s.shoppingH.Generate)
	mux.HandleFunc("POST /api/shopping/from-dish", s.shoppingH.AddFromDish)

	// Assistant
	limitChat := middleware.RateLimit(s.chatLimit, middleware.UserKey)
	mux.Handle("POST /api/chat", limitChat(http.HandlerFunc(s.chatH.Chat)))
	mux.HandleFunc("GET /api/chat/ws", s.chatH.Socket)
}
