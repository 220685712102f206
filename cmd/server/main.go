package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"library_api/internal/api"
	"library_api/internal/app/service"
	"library_api/internal/common/security"
	"library_api/internal/domain/repository"
	"library_api/internal/platform/cache"
	"library_api/internal/platform/config"
	"library_api/internal/platform/database"
)

func main() {
	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT()
	fmt.Println("JWT initialized.")

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	fmt.Println("Database connected.")

	// 4. Initialize the session token store
	tokenStore := cache.NewRedisTokenStore()
	defer tokenStore.Close()
	fmt.Println("Token store connected.")

	// 5. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	bookRepo := repository.NewPgBookRepository(database.DB)
	loanRepo := repository.NewPgLoanRepository(database.DB)

	// 6. Seed default accounts on first boot
	if err := database.SeedUsers(context.Background(), userRepo); err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}

	// 7. Initialize Services
	authService := service.NewAuthService(userRepo, tokenStore)
	bookService := service.NewBookService(bookRepo, loanRepo)
	loanService := service.NewLoanService(loanRepo, bookRepo, database.NewTxManager(database.DB))

	// 8. Initialize Router & HTTP Server
	router := api.NewRouter(authService, bookService, loanService, userRepo, tokenStore)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped gracefully.")
}
