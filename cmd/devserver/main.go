package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/eventsplatform/internal/buildinfo"
	"github.com/dmitrijs2005/eventsplatform/internal/devserver"
	"github.com/dmitrijs2005/eventsplatform/internal/devserver/config"
	"github.com/dmitrijs2005/eventsplatform/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)

	if err := devserver.NewServer(cfg, logger).Run(ctx); err != nil {
		log.Printf("%v", err)
	}

}
