package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	var rootCmd = &cobra.Command{
		Use:   "streamhub",
		Short: "Video catalog and streaming backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
		SilenceUsage: true,
	}

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the HTTP API and realtime side channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
		SilenceUsage: true,
	}

	var seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Seed the admin account, default categories and the shows file",
		RunE: func(cmd *cobra.Command, args []string) error {
			reset, _ := cmd.Flags().GetBool("reset")
			return runSeed(reset)
		},
		SilenceUsage: true,
	}
	seedCmd.Flags().Bool("reset", false, "delete all users and categories before seeding")

	var hashCmd = &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cost, _ := cmd.Flags().GetInt("cost")
			hash, err := bcrypt.GenerateFromPassword([]byte(args[0]), cost)
			if err != nil {
				return err
			}
			fmt.Println(string(hash))
			return nil
		},
	}
	hashCmd.Flags().Int("cost", bcrypt.DefaultCost, "bcrypt cost")

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("streamhub", version)
		},
	}

	rootCmd.AddCommand(runCmd, seedCmd, hashCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
