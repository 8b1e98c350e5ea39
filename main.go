package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"merchant-statements/cmd/deliver"
	"merchant-statements/cmd/generate"
	"merchant-statements/cmd/root"
	"merchant-statements/cmd/run"
	"merchant-statements/cmd/status"
)

func init() {
	// Load environment variables before configuration is read, so
	// STMT_* and SMTP_* values from .env are visible to viper.
	loadEnvSilently()

	root.Init()

	root.Cmd.AddCommand(run.Cmd)
	root.Cmd.AddCommand(generate.Cmd)
	root.Cmd.AddCommand(deliver.Cmd)
	root.Cmd.AddCommand(status.Cmd)
}

// loadEnvSilently loads a .env file when one exists, without logging.
func loadEnvSilently() {
	envFile := ".env"
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		envFile = filepath.Join("..", ".env")
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			return
		}
	}
	_ = godotenv.Load(envFile)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
