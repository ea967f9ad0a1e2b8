package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chazu/cutplan/pkg/api"
	"github.com/chazu/cutplan/pkg/document"
	"github.com/chazu/cutplan/pkg/job"
	"github.com/chazu/cutplan/pkg/kernel/sdfx"
	"github.com/chazu/cutplan/pkg/toollib"
)

func serveCmd() *cobra.Command {
	var (
		addr    string
		library string
		jobPath string
		docPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a session over HTTP",
		Long: `Start the HTTP API over one session.

The session can be seeded from a tool library, a job script or a saved XML
document. Tool meshes are built with the sdfx kernel at CUTPLAN_MESH_CELLS
resolution.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer env.Close()
			if addr == "" {
				addr = env.settings.Addr
			}

			session := job.NewSession(env.cfg, sdfx.New(env.settings.MeshCells), env.logger)
			if err := seed(cmd, session, library, jobPath, docPath); err != nil {
				return err
			}

			gin.SetMode(gin.ReleaseMode)
			if verbose {
				gin.SetMode(gin.DebugMode)
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           api.NewRouter(session, env.logger.Named("api")),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				env.logger.Info("listening", zap.String("addr", addr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			env.logger.Info("shutting down")
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from CUTPLAN_ADDR)")
	cmd.Flags().StringVarP(&library, "library", "l", "", "Tool library to load")
	cmd.Flags().StringVarP(&jobPath, "job", "j", "", "Job script to run at startup")
	cmd.Flags().StringVar(&docPath, "document", "", "XML document to load at startup")
	return cmd
}

func seed(cmd *cobra.Command, s *job.Session, library, jobPath, doc string) error {
	stderr := cmd.ErrOrStderr()
	if doc != "" {
		diags, err := document.LoadFile(doc, s)
		if err != nil {
			return fmt.Errorf("load document: %w", err)
		}
		for _, d := range diags {
			fmt.Fprintf(stderr, "skipped: %s\n", d)
		}
	}

	var opts job.Options
	if library != "" {
		lib, err := toollib.Load(library)
		if err != nil {
			return err
		}
		opts.Library = lib
		if jobPath == "" {
			for _, d := range s.LoadLibrary(lib) {
				fmt.Fprintf(stderr, "skipped: %s\n", d)
			}
		}
	}

	if jobPath != "" {
		source, err := os.ReadFile(jobPath)
		if err != nil {
			return fmt.Errorf("read job: %w", err)
		}
		res := s.Run(string(source), opts)
		if !res.OK() {
			return fmt.Errorf("%s: %s", jobPath, res.Errors[0].Message)
		}
	}
	return nil
}
