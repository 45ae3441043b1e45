package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/netbill/isp-billing/internal/users"
	"github.com/netbill/isp-billing/pkg/config"
	"github.com/netbill/isp-billing/pkg/db"
	"github.com/netbill/isp-billing/pkg/env"
	"github.com/netbill/isp-billing/pkg/logger"
	"github.com/netbill/isp-billing/pkg/security"
)

const tempPasswordLength = 16

func main() {
	username := flag.String("username", "", "administrator username")
	email := flag.String("email", "", "administrator email")
	password := flag.String("password", "", "password (a random one is generated when empty)")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "create-user"})
	if _, err := env.LoadFiles(); err != nil {
		logg.Error(context.Background(), "failed to read dotenv file", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "create-user",
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if *username == "" || *email == "" {
		fmt.Fprintln(os.Stderr, "usage: create-user -username <name> -email <email> [-password <password>]")
		os.Exit(2)
	}

	generated := false
	if *password == "" {
		temp, err := security.GenerateTempPassword(tempPasswordLength)
		if err != nil {
			logg.Error(context.Background(), "failed to generate password", err)
			os.Exit(1)
		}
		*password = temp
		generated = true
	}

	ctx := context.Background()
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	svc, err := users.NewRegisterService(users.RegisterServiceParams{
		Repo:           users.NewRepository(dbClient.DB()),
		Tx:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(ctx, "failed to create user service", err)
		os.Exit(1)
	}

	user, err := svc.Register(ctx, users.CreateInput{
		Username: *username,
		Email:    *email,
		Password: *password,
	})
	if err != nil {
		logg.Error(logg.WithField(ctx, "username", *username), "failed to create user", err)
		dbClient.Close()
		os.Exit(1)
	}

	logg.Info(logg.WithUserID(ctx, user.ID.String()), "administrator created")
	fmt.Printf("created user %s <%s> (%s)\n", user.Username, user.Email, user.ID)
	if generated {
		fmt.Printf("temporary password: %s\n", *password)
	}
}
