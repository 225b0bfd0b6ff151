package main

import (
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/raywall/fast-sdb-toolkit/pkg/config"
	"github.com/raywall/fast-sdb-toolkit/pkg/logger"
	"github.com/raywall/fast-sdb-toolkit/tools/emulator"
)

// Injetável para testes
var serverStarter = func(addr string, h http.Handler) error {
	return http.ListenAndServe(addr, h)
}

func main() {
	if err := run(); err != nil {
		log.Fatalln(err)
	}
}

// run lê a configuração do emulador das variáveis de ambiente e sobe o
// servidor. Apenas EmulatorConf e LoggingConf são usados, sem credenciais.
func run() error {
	var cfg struct {
		Emulator config.EmulatorConf
		Logging  config.LoggingConf
	}
	if err := config.ApplyDefaults(&cfg); err != nil {
		return err
	}
	if err := config.LoadEnv(&cfg); err != nil {
		return err
	}
	if cfg.Emulator.PageSize < 1 || cfg.Emulator.PageSize > 2500 {
		return errors.New("emulator: EMULATOR_PAGE_SIZE deve estar entre 1 e 2500")
	}

	lg := logger.New(cfg.Logging, os.Stdout)

	var seed emulator.Seed
	if cfg.Emulator.SeedFile != "" {
		var err error
		if seed, err = emulator.LoadSeedFile(cfg.Emulator.SeedFile); err != nil {
			return err
		}
	}

	srv := emulator.New(emulator.Options{
		PageSize: cfg.Emulator.PageSize,
		Logger:   &lg,
		Seed:     seed,
	})

	lg.Info().
		Str("addr", cfg.Emulator.Addr).
		Int("page_size", cfg.Emulator.PageSize).
		Int("domains", len(seed)).
		Msg("emulador SimpleDB iniciado")
	return serverStarter(cfg.Emulator.Addr, srv)
}
