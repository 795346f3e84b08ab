package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/njchilds90/gointegral/calculator"
	"github.com/njchilds90/gointegral/internal/config"
	"github.com/njchilds90/gointegral/internal/logging"
	"github.com/njchilds90/gointegral/internal/metrics"
	"github.com/njchilds90/gointegral/internal/server"
	"github.com/njchilds90/gointegral/internal/telemetry"
	"github.com/njchilds90/gointegral/steps"
)

const serviceName = "gointegral"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "integral",
		Short:         "Step-by-step symbolic integral calculator",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	rootCmd.AddCommand(newServeCmd(&configPath), newSolveCmd(&configPath), newSchemaCmd())
	return rootCmd
}

func calculatorOptions(cfg config.Config) calculator.Options {
	return calculator.Options{
		Language:              steps.Language(cfg.Steps.Language),
		ReplaceLn:             cfg.Preprocess.ReplaceLn,
		IncludeAntiderivative: cfg.Plot.IncludeAntiderivative,
		Points:                cfg.Plot.Points,
		AreaPoints:            cfg.Plot.AreaPoints,
	}
}

func newServeCmd(configPath *string) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			logger := logging.New(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
			shutdownTracing, err := telemetry.Init(cmd.Context(), cfg.Tracing, telemetry.Options{
				ServiceName:    serviceName,
				ServiceVersion: version,
			})
			if err != nil {
				return err
			}

			gin.SetMode(gin.ReleaseMode)
			m := metrics.New()
			calc := calculator.New(calculatorOptions(cfg),
				calculator.WithRecorder(m),
				calculator.WithLogger(logger),
			)

			srv := server.New(cfg.Server, calc, m, logger)
			if err := srv.Start(); err != nil {
				return err
			}

			wait := gfshutdown.GracefulShutdown(
				context.Background(),
				cfg.Server.ShutdownTimeout,
				map[string]gfshutdown.Operation{
					"http-server": func(ctx context.Context) error {
						return srv.Stop(ctx)
					},
					"tracing": func(ctx context.Context) error {
						return shutdownTracing(ctx)
					},
				},
			)

			exitCode := <-wait
			logger.Info("Server exited", "code", exitCode)
			os.Exit(exitCode)
			return nil
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "override the configured port")
	return cmd
}

func newSolveCmd(configPath *string) *cobra.Command {
	var (
		req    calculator.Request
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "solve <function>",
		Short: "Integrate a function and print the steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if req.Type != calculator.TypeDefinite && req.Type != calculator.TypeIndefinite {
				return fmt.Errorf("invalid --type %q: want definite or indefinite", req.Type)
			}
			req.Function = args[0]

			resp := calculator.New(calculatorOptions(cfg)).Calculate(cmd.Context(), req)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVarP(&req.Type, "type", "t", calculator.TypeIndefinite, "definite or indefinite")
	cmd.Flags().StringVar(&req.LowerLimit, "lower", "", "lower limit (number or expression)")
	cmd.Flags().StringVar(&req.UpperLimit, "upper", "", "upper limit (number or expression)")
	cmd.Flags().StringVar(&req.GraphRange, "range", "", `graph range as "min,max"`)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full JSON response including graph samples")
	return cmd
}

func printResponse(w io.Writer, resp calculator.Response) error {
	if !resp.Success {
		return fmt.Errorf("%s", resp.Error)
	}
	for _, s := range resp.Steps {
		if _, err := fmt.Fprintln(w, s); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\nResult: %s\n", resp.ResultLaTeX)
	return err
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the tool schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), calculator.ToolSpec())
			return err
		},
	}
}
