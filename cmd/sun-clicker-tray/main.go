package main

import (
	"log"

	"jordanella.com/sun-clicker/internal/config"
	"jordanella.com/sun-clicker/internal/coordinator"
)

func main() {
	session, err := coordinator.New(coordinator.Options{SettingsPath: config.DefaultPath})
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	NewTrayApp(session).Run()

	if err := session.Close(); err != nil {
		log.Printf("Shutdown: %v", err)
	}
}
