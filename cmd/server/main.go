package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"pretriage/internal/catalog"
	"pretriage/internal/config"
	"pretriage/internal/notify"
	"pretriage/internal/platform/telegram"
	"pretriage/internal/report"
	"pretriage/internal/store/memstore"
	"pretriage/internal/store/postgres"
	"pretriage/internal/triage"
)

func main() {
	cfg := config.Load()

	cat, err := catalog.Load()
	if err != nil {
		log.Fatalf("failed to load reference catalogs: %v", err)
	}

	var store triage.Store
	if cfg.DatabaseURL != "" {
		db, err := connectWithRetry(cfg.DatabaseURL, 10)
		if err != nil {
			log.Printf("could not connect to database, falling back to in-memory store: %v", err)
			store = memstore.New()
		} else {
			log.Println("connected to database")
			runMigrations(cfg.DatabaseURL)
			store = postgres.New(db)
		}
	} else {
		log.Println("DATABASE_URL not set, using in-memory store")
		store = memstore.New()
	}

	orch := triage.New(cat, store)

	tgClient := telegram.NewClient(cfg.TelegramToken)
	reportSvc := report.NewService(tgClient, cfg.DoctorChatID)
	dispatcher := notify.NewDispatcher(tgClient, reportSvc, cfg.DoctorChatID)
	if cfg.DoctorChatID == 0 {
		log.Println("warning: DOCTOR_CHAT_ID is not set or invalid, doctor notifications will not be sent correctly")
	}

	handler := triage.NewHandler(orch, func(sess *triage.Session, env triage.Envelope) {
		dispatcher.Notify(context.Background(), sess, env)
	})

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS for the triage frontend
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")
			if r.Method == "OPTIONS" {
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Route("/api", func(r chi.Router) {
		triage.RegisterRoutes(r, handler)
	})

	fmt.Printf("server starting on port %s...\n", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}

func connectWithRetry(dbConnStr string, attempts int) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < attempts; i++ {
		db, err = sql.Open("postgres", dbConnStr)
		if err == nil {
			err = db.Ping()
		}
		if err == nil {
			return db, nil
		}
		fmt.Printf("waiting for DB... (%d/%d)\n", i+1, attempts)
		time.Sleep(time.Second)
	}
	return nil, err
}

func runMigrations(dbConnStr string) {
	m, err := migrate.New("file://internal/store/postgres/migrations", dbConnStr)
	if err != nil {
		log.Printf("migration init failed: %v", err)
		return
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		log.Printf("migration up failed: %v", err)
		return
	}
	log.Println("migrations applied successfully")
}
