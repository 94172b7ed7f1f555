package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/metinatakli/cinex-booking/internal/app"
)

func main() {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to load .env file", "error", err)
		os.Exit(1)
	}

	err = app.Run()
	if err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}
