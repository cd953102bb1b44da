// Command fundroundd runs a quadratic-funding round host and talks to
// one over gRPC.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:           "fundroundd",
		Short:         "Quadratic-funding round host",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCommand(), queryCommand(), txCommand())

	if err := root.Execute(); err != nil {
		logrus.WithError(err).Error("fundroundd failed")
		os.Exit(1)
	}
}
