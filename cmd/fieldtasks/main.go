package main

import (
	"context"
	"log"

	"github.com/dalemusser/waffle/app"
	"github.com/gcnet/fieldtasks/internal/app/bootstrap"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}
