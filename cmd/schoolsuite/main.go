// cmd/schoolsuite/main.go
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/dalemusser/schoolsuite/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}
