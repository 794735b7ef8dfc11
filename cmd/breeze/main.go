package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/eringen/breeze"
	"github.com/eringen/breeze/api"
	"github.com/eringen/breeze/appstate"
	"github.com/eringen/breeze/geo"
	"github.com/eringen/breeze/imgurl"
	"github.com/eringen/breeze/routes"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe()
	case "info":
		err = runInfo(os.Args[2:])
	case "report":
		err = runReport(os.Args[2:])
	case "routes":
		err = runRoutes()
	case "version":
		fmt.Printf("breeze %s\n", version)
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage(os.Stderr)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `breeze - blog API server and client

Usage:
  breeze <command> [flags]

Commands:
  serve         Run the API server (configured from the environment / .env)
  info          Fetch and print the home payload and page list
  report        Sample a location and send one report
  routes        Print the admin console menu
  version       Print the breeze version
  help          Show this help message

Examples:
  breeze serve
  BREEZE_SERVER_URL=https://api.example.com breeze info
  breeze report -lat 31.2304 -lng 121.4737 -accuracy 25`)
}

func runServe() error {
	cfg, err := breeze.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	app := breeze.New(cfg)
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- app.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// serverURL reads BREEZE_SERVER_URL, from .env when present.
func serverURL() (string, error) {
	_ = godotenv.Load()
	u := breeze.EnvOr("BREEZE_SERVER_URL", "")
	if u == "" {
		return "", errors.New("BREEZE_SERVER_URL is not set")
	}
	return u, nil
}

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	timeout := fs.Duration("timeout", 15*time.Second, "request timeout")
	fs.Parse(args)

	base, err := serverURL()
	if err != nil {
		return err
	}
	store := appstate.New(api.NewClient(base), appstate.WithResolver(imgurl.New(base)))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	if err := store.GetBlogInfo(ctx); err != nil {
		return err
	}
	if err := store.GetPageList(ctx); err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Info  api.BlogInfo `json:"info"`
		Pages []api.Page   `json:"pages"`
	}{store.BlogInfo(), store.Pages()})
}

func runReport(args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	lat := fs.Float64("lat", 0, "latitude (WGS-84)")
	lng := fs.Float64("lng", 0, "longitude (WGS-84)")
	accuracy := fs.Float64("accuracy", 0, "accuracy in meters")
	fs.Parse(args)

	base, err := serverURL()
	if err != nil {
		return err
	}

	var opts []appstate.Option
	// Without coordinates the report carries the unsupported error instead.
	if *lat != 0 || *lng != 0 {
		opts = append(opts, appstate.WithLocator(geo.StaticProvider{Latitude: *lat, Longitude: *lng, Accuracy: *accuracy}))
	}
	sessionID := uuid.NewString()
	opts = append(opts, appstate.WithSessionID(sessionID))
	store := appstate.New(api.NewClient(base), opts...)

	store.ReportLocation(context.Background())
	store.Wait()
	slog.Info("report finished", "session", sessionID)
	return nil
}

func runRoutes() error {
	table := routes.Default()
	if err := table.Validate(); err != nil {
		return err
	}
	for _, item := range table.Menu() {
		fmt.Printf("%*s%-12s %-20s %s\n", item.Depth*2, "", item.Name, item.Path, item.Title)
	}
	return nil
}
