package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"marmot/app"
	"marmot/config"
	"marmot/utils/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	marmot, err := app.NewMarmot(cfg)
	if err != nil {
		log.Fatal(err)
	}

	if err := marmot.Start(); err != nil {
		log.Fatal(err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Infof("Shutting down gracefully...")

	marmot.Stop()
	time.Sleep(1 * time.Second)
	log.Infof("Shutdown complete.")
}
