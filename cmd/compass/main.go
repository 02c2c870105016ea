package main

import (
	"log"

	"github.com/chatnav/compass/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ compass failed to start: %v", err)
	}
}
