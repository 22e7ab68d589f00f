// Command xivmarket prints market rankings to the terminal and optionally
// exports them to a spreadsheet.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"xivmarket/internal/app"
	"xivmarket/internal/config"
	"xivmarket/internal/logx"
	"xivmarket/internal/render"
)

var (
	xlsxPath string
	verbose  bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "xivmarket",
	Short:         "FFXIV market board rankings",
	Long:          `Ranks ventures, collectibles, scrip rewards, gear and resale opportunities from live Universalis prices.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		logx.Init(!verbose)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&xlsxPath, "xlsx", "", "also write the tables to this .xlsx file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(venturesCmd, collectiblesCmd, scripsCmd, gearsetCmd, jobsetCmd, resellCmd, statsCmd, serverCmd, chatCmd, catalogCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// withApp runs fn against fully initialized services.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

// show prints the tables and saves them when --xlsx is set.
func show(tables ...render.Table) error {
	for _, t := range tables {
		fmt.Println(t.String())
	}
	if xlsxPath == "" {
		return nil
	}
	if err := render.WriteXLSX(xlsxPath, tables...); err != nil {
		return err
	}
	fmt.Printf("Saved %d table(s) to %s\n", len(tables), xlsxPath)
	return nil
}
