// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"codeberg.org/qna-service/backend/internal/config"
	"codeberg.org/qna-service/backend/internal/database"
	"codeberg.org/qna-service/backend/internal/repository"
	"codeberg.org/qna-service/backend/internal/server"
	"codeberg.org/qna-service/backend/internal/services/auth"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	cmd := &cli.Command{
		Name:    "qna-server",
		Usage:   "Q&A support backend",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Flags:   config.Flags(),
		Action:  server.Run,
		Commands: []*cli.Command{
			{
				Name:      "create-staff",
				Usage:     "Create or promote a staff account",
				ArgsUsage: "<email> <password>",
				Flags:     config.Flags(),
				Action:    createStaff,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// createStaff creates a staff user directly in the database, the
// counterpart of signing up through the API.
func createStaff(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 {
		return fmt.Errorf("usage: create-staff <email> <password>")
	}
	email, password := cmd.Args().Get(0), cmd.Args().Get(1)

	cfg := config.NewFromCLI(cmd)

	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	repo := repository.New(db)
	authSvc := auth.NewService(repo, nil, nil, nil, &cfg.Auth)

	user, err := authSvc.EnsureStaff(ctx, email, password)
	if err != nil {
		return err
	}

	fmt.Printf("staff account ready: %s (id %d)\n", user.Email, user.ID)
	return nil
}
