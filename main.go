package main

import (
	"flag"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"bartchat/internal/auth"
	"bartchat/internal/chat"
	"bartchat/internal/config"
	"bartchat/internal/gateway"
	"bartchat/internal/handlers"
	"bartchat/internal/middleware"
	"bartchat/internal/store/sqlstore"
)

var addr = flag.String("addr", "", "http service address (overrides ADDR)")

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	auth.SetSecret(cfg.CookieSecret)

	// Persistent store, e.g. DATABASE_DRIVER=postgres
	// DATABASE_URL="user=user password=password dbname=bartchat sslmode=disable"
	st, err := sqlstore.New(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	llm, err := gateway.New(cfg.OpenAIKey, gateway.WithModel(cfg.OpenAIModel))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create completion gateway")
	}

	service, err := chat.NewService(st, llm)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create conversation service")
	}

	authHandler := &handlers.AuthHandler{Store: st}
	chatHandler := &handlers.ChatHandler{Service: service}
	userHandler := &handlers.UserHandler{Store: st}

	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")

	r.HandleFunc("/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/logout", authHandler.Logout).Methods("POST")
	r.HandleFunc("/auth/sso", authHandler.SSOLogin).Methods("POST")

	api := r.NewRoute().Subrouter()
	api.Use(middleware.AuthMiddleware)
	api.HandleFunc("/conversations", chatHandler.CreateConversation).Methods("POST")
	api.HandleFunc("/conversations", chatHandler.ListConversations).Methods("GET")
	api.HandleFunc("/conversations/{id}", chatHandler.GetConversation).Methods("GET")
	api.HandleFunc("/conversations/{id}", chatHandler.RenameConversation).Methods("PATCH")
	api.HandleFunc("/conversations/{id}", chatHandler.DeleteConversation).Methods("DELETE")
	api.HandleFunc("/conversations/{id}/messages", chatHandler.SendMessage).Methods("POST")
	api.HandleFunc("/conversations/{id}/summary", chatHandler.SummarizeConversation).Methods("GET")
	api.HandleFunc("/profile", userHandler.GetProfile).Methods("GET")
	api.HandleFunc("/profile", userHandler.UpdateProfile).Methods("PUT")
	api.HandleFunc("/profile/stats", userHandler.GetStats).Methods("GET")

	log.Info().Str("addr", cfg.Addr).Msg("starting server")
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
