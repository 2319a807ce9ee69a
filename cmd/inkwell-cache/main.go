package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/okriek/inkwell/cache"
	"github.com/okriek/inkwell/config"
)

func main() {
	addrFlag := flag.String("addr", "", "Listen address (overrides config)")
	dirFlag := flag.String("dir", "", "Cache directory (overrides config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %+v\n", err)
		os.Exit(1)
	}
	if *addrFlag != "" {
		cfg.Cache.Addr = *addrFlag
	}
	if *dirFlag != "" {
		cfg.Cache.Dir = *dirFlag
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %+v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	sidecar := cache.NewSidecar(cfg.Cache.Addr, cfg.Cache.Dir, cfg.Cache.Expose, logger)
	if err := sidecar.Start(); err != nil {
		logger.Fatal("cache sidecar failed", zap.Error(err))
	}
}
