package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ArtemMoroz51/quizbox/internal/app"
	"github.com/ArtemMoroz51/quizbox/internal/config"
)

func main() {
	path := flag.String("config", getenv("QUIZBOX_PROPERTIES", "quizbox.properties"), "path to the properties file")
	flag.Parse()

	if err := run(*path); err != nil {
		fmt.Fprintln(os.Stderr, "quizbox:", err)
		os.Exit(1)
	}
}

func run(path string) error {
	props, err := config.Load(path)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, app.ConfigFromProperties(props))
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Run(ctx)
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
