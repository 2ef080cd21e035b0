package main

import (
	"log"

	"github.com/clsdenji/Spark/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ spark failed to start: %v", err)
	}
}
