package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/me/interviewd/internal/cli"
)

func main() {
	// A .env in the working directory can supply INTERVIEWD_SERVER.
	godotenv.Load()

	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
