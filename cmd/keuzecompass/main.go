package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"keuzecompass/cmd/keuzecompass/cmd"

	"github.com/joho/godotenv"
)

func main() {
	// A .env file is optional; the environment may already be set.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cmd.Execute(ctx)
	stop()
	os.Exit(code)
}
