package routes

import (
	"net/http"
	"os"
	"time"

	"github.com/Dosada05/meetbasket/handlers"
	"github.com/Dosada05/meetbasket/metrics"
	"github.com/Dosada05/meetbasket/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	Court      *handlers.CourtHandler
	Rating     *handlers.RatingHandler
	Game       *handlers.GameHandler
	Team       *handlers.TeamHandler
	Tournament *handlers.TournamentHandler
	User       *handlers.UserHandler
	Friend     *handlers.FriendHandler
	Message    *handlers.MessageHandler
	Settings   *handlers.SettingsHandler
	Premium    *handlers.PremiumHandler
	Contact    *handlers.ContactHandler
	WebSocket  *handlers.WebSocketHandler
	Health     *handlers.HealthHandler
}

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
	StaticDir      string
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	if opts.Metrics != nil {
		router.Use(middleware.RequestMetrics(opts.Metrics))
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(opts.JWTSecret)
	optionalAuth := middleware.OptionalAuth(opts.JWTSecret)

	router.Get("/health", h.Health.Health)
	if opts.MetricsHandler != nil {
		router.Handle("/metrics", opts.MetricsHandler)
	}
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	router.Route("/api", func(api chi.Router) {
		// websocket без таймаута: соединение живет долго
		api.With(middleware.AuthenticateWS(opts.JWTSecret)).Get("/ws", h.WebSocket.ServeWs)

		api.Group(func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(30 * time.Second))
			apiRoutes(r, h, authenticate, optionalAuth)
		})
	})

	if opts.StaticDir != "" {
		if info, err := os.Stat(opts.StaticDir); err == nil && info.IsDir() {
			router.Handle("/*", http.FileServer(http.Dir(opts.StaticDir)))
		}
	}
}

func apiRoutes(r chi.Router, h Handlers, authenticate, optionalAuth func(http.Handler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
	})

	r.Route("/courts", func(r chi.Router) {
		r.Get("/", h.Court.ListCourts)
		r.Get("/nearby", h.Court.NearbyCourts)
		r.Get("/{courtID}", h.Court.GetCourt)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", h.Court.CreateCourt)
			r.Post("/{courtID}/image", h.Court.UploadImage)
			r.Post("/{courtID}/rate", h.Rating.RateCourt)
			r.Post("/{courtID}/reviews", h.Court.AddReview)
			r.Post("/{courtID}/checkin", h.Court.Checkin)
		})
	})

	r.Route("/games", func(r chi.Router) {
		r.With(optionalAuth).Get("/", h.Game.ListGames)
		r.Get("/{gameID}", h.Game.GetGame)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", h.Game.CreateGame)
			r.Post("/{gameID}/join", h.Game.JoinGame)
			r.Post("/{gameID}/leave", h.Game.LeaveGame)
			r.Delete("/{gameID}", h.Game.DeleteGame)
			r.Put("/{gameID}/result", h.Game.SaveResult)
		})
	})

	r.Route("/teams", func(r chi.Router) {
		r.Get("/", h.Team.ListTeams)
		r.Get("/{teamID}", h.Team.GetTeam)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", h.Team.CreateTeam)
			r.Put("/{teamID}", h.Team.UpdateTeam)
			r.Post("/{teamID}/rate", h.Rating.RateTeam)
			r.Post("/{teamID}/logo", h.Team.UploadLogo)
		})
	})

	r.Route("/tournaments", func(r chi.Router) {
		r.Get("/", h.Tournament.ListTournaments)
		r.Get("/{tournamentID}", h.Tournament.GetTournament)
		r.Get("/{tournamentID}/bracket", h.Tournament.GetBracket)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", h.Tournament.CreateTournament)
			r.Put("/{tournamentID}", h.Tournament.UpdateTournament)
			r.Post("/{tournamentID}/join", h.Tournament.JoinTournament)
			r.Post("/{tournamentID}/leave", h.Tournament.LeaveTournament)
		})
	})

	r.Route("/players", func(r chi.Router) {
		r.Get("/", h.User.ListPlayers)
		r.With(optionalAuth).Get("/{userID}", h.User.GetPlayer)
		r.With(authenticate).Post("/{userID}/rate", h.Rating.RatePlayer)
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.User.ListUsers)
		r.Get("/{userID}", h.User.GetUser)
	})

	r.Route("/profile", func(r chi.Router) {
		r.With(optionalAuth).Get("/by-username/{username}", h.User.GetPlayerByUsername)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/", h.User.GetProfile)
			r.Put("/", h.User.UpdateProfile)
			r.Post("/avatar", h.User.UploadAvatar)
			r.Get("/stats", h.User.GetStats)
		})
	})

	r.Route("/friends", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/", h.Friend.ListFriends)
		r.Get("/requests", h.Friend.ListRequests)
		r.Post("/requests", h.Friend.SendRequest)
		r.Post("/requests/{requestID}/accept", h.Friend.AcceptRequest)
		r.Post("/requests/{requestID}/decline", h.Friend.DeclineRequest)
		r.Delete("/requests/{requestID}", h.Friend.CancelRequest)
		r.Delete("/{userID}", h.Friend.RemoveFriend)
	})

	r.Route("/messages", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/conversations", h.Message.ListConversations)
		r.Post("/conversations", h.Message.OpenConversation)
		r.Get("/conversations/{conversationID}", h.Message.GetConversation)
		r.Post("/conversations/{conversationID}", h.Message.SendMessage)
		r.Delete("/{messageID}", h.Message.DeleteMessage)
		r.Get("/unread-count", h.Message.UnreadCount)
	})

	r.Route("/settings", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/", h.Settings.GetSettings)
		r.Put("/", h.Settings.UpdateSettings)
		r.Delete("/account", h.User.DeleteAccount)
		r.Put("/password", h.User.ChangePassword)
	})

	r.Route("/premium", func(r chi.Router) {
		r.Use(authenticate)
		r.Post("/checkout", h.Premium.CreateCheckout)
		r.Post("/subscribe", h.Premium.Subscribe)
		r.Get("/status", h.Premium.Status)
	})

	r.Post("/newsletter/subscribe", h.Contact.Subscribe)
	r.Post("/contact", h.Contact.SubmitContact)
}
