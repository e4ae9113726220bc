package main

import (
	"os"

	"github.com/dilshat/gift-courier/cli"
	"github.com/dilshat/gift-courier/log"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// @title Gift courier HTTP API
// @description Delivers digital goods bought on the marketplace as gifts

// @contact.name Dilshat Aliev
// @contact.email dilshat.aliev@gmail.com

func init() {
	//bootstrap logger until the configured one replaces it
	if _, err := log.New("info", false); err != nil {
		panic(err)
	}
	log.WarnIfErr("Error loading .env", godotenv.Load())
}

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		zap.L().Error("Command failed", zap.Error(err))
		_ = zap.L().Sync()
		os.Exit(1)
	}
}
