package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/takutakahashi/push-registry/cmd"
)

var rootCmd = &cobra.Command{
	Use:          "push-registry",
	Short:        "Push notification subscription registry",
	Long:         "An HTTP service that tracks which identities receive push notifications and through which tokens",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(cmd.ServerCmd)
	rootCmd.AddCommand(cmd.ValidateStoreCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
