package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gwi.com/research-assistant/internal/api"
	"gwi.com/research-assistant/internal/config"
	"gwi.com/research-assistant/internal/loader"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var root = &cobra.Command{
		Use:   "research-assistant",
		Short: "Index web articles per session and answer questions about them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
		SilenceUsage: true,
	}
	root.AddCommand(serveCMD(), processCMD(), askCMD())

	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func serveCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func processCMD() *cobra.Command {
	var sessionID string
	var process = &cobra.Command{
		Use:   "process URL...",
		Short: "Index articles for a session",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			urls, err := loader.CleanURLs(args)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.rag.Process(cmd.Context(), sessionID, urls)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
	process.Flags().StringVarP(&sessionID, "session", "s", "", "session id")
	_ = process.MarkFlagRequired("session")
	return process
}

func askCMD() *cobra.Command {
	var sessionID string
	var ask = &cobra.Command{
		Use:   "ask QUESTION",
		Short: "Ask a question against a session's articles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			answer, err := a.rag.Ask(cmd.Context(), sessionID, args[0], nil)
			if err != nil {
				return err
			}
			return printJSON(cmd, answer)
		},
	}
	ask.Flags().StringVarP(&sessionID, "session", "s", "", "session id")
	_ = ask.MarkFlagRequired("session")
	return ask
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runServer(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	apiHandler := api.NewAPIHandler(a.rag, a.chats)
	router := api.NewRouter(apiHandler)

	serverAddr := fmt.Sprintf(":%s", a.cfg.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // Rendering several pages and embedding them takes a while
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("could not listen on %s: %w", serverAddr, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return err
	}
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("Server exiting gracefully")
	return nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Debug() {
		log.Println("Service starting in DEBUG mode")
	}
	return cfg, nil
}
