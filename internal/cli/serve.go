package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"mhp-content/internal/handler"
	"mhp-content/internal/scheduler"
	"mhp-content/internal/service"
)

func (a *app) verifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check storage, embeddings and search end to end",
		RunE: func(cmd *cobra.Command, _ []string) error {
			llm, err := a.llm()
			if err != nil {
				return err
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			checks, ok := service.NewVerifyService(s, a.embeddingService(s, llm), a.log).Run(cmd.Context())
			printChecks(cmd.OutOrStdout(), checks)
			if !ok {
				return errors.New("setup verification failed")
			}
			return nil
		},
	}
}

func (a *app) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled enrichment jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			llm, err := a.llm()
			if err != nil {
				return err
			}
			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			embeddings := a.embeddingService(s, llm)
			reliability := service.NewReliabilityService(s, llm, a.cfg.Generation.ItemDelay, a.log)

			sched := scheduler.NewScheduler(embeddings, reliability, a.cfg.Cron, a.log)
			if err := sched.Start(); err != nil {
				return err
			}
			defer sched.Stop()

			gin.SetMode(a.cfg.Server.Mode)
			r := gin.Default()
			h := handler.NewHandler(s, llm, embeddings, a.log)
			h.SetScheduler(sched)
			h.RegisterRoutes(r)

			srv := &http.Server{Addr: a.cfg.GetServerAddress(), Handler: r}
			errCh := make(chan error, 1)
			go func() {
				a.log.Info("server starting", "addr", srv.Addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("serve: %w", err)
			case <-ctx.Done():
			}

			a.log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
