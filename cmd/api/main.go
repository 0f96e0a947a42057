package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"caredesk.io/internal/auth"
	"caredesk.io/internal/config"
	"caredesk.io/internal/httpapi"
	"caredesk.io/internal/obs"
	"caredesk.io/internal/patient"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not up yet.
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := obs.InitLogger(cfg.App.Name, cfg.IsDevelopment()); err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer obs.Sync()

	obs.Init()
	obs.InitBuildInfo(cfg.App.Version)

	log := obs.L()

	tokens, err := auth.NewTokens(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TokenTTL)
	if err != nil {
		log.Fatal("token signer", zap.Error(err))
	}

	var (
		identities auth.IdentityStore
		patients   patient.Store
		db         *sql.DB
	)
	if cfg.Database.DSN != "" {
		db, err = openDB(cfg)
		if err != nil {
			log.Fatal("open database", zap.Error(err))
		}
		defer db.Close()
		identities = auth.NewPGStore(db)
		patients = patient.NewPGStore(db)
	} else {
		// No DSN configured: run on volatile in-memory stores. Useful for
		// local development and demos, never for real deployments.
		log.Warn("no database.dsn configured, using in-memory stores")
		identities = auth.NewInMemory()
		patients = patient.NewInMemory()
	}

	accounts := auth.NewService(identities, tokens)

	readPolicy := httpapi.Public
	if cfg.Patient.ReadPolicy == config.ReadPolicyAuthenticated {
		readPolicy = httpapi.Authenticated
	}

	api := httpapi.New(httpapi.Config{
		ReadyProbe:        httpapi.ReadyProbe{DB: db},
		Version:           cfg.App.Version,
		Accounts:          accounts,
		Tokens:            tokens,
		Patients:          patients,
		PatientReadPolicy: readPolicy,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening",
			zap.String("addr", srv.Addr),
			zap.String("version", cfg.App.Version),
			zap.String("read_policy", cfg.Patient.ReadPolicy),
		)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server", zap.Error(err))
		}
	case sig := <-stop:
		log.Info("shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("shutdown", zap.Error(err))
		}
	}
}

func openDB(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.Database.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
