package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/export"
	"github.com/ayusman/mudra/internal/label"
	"github.com/ayusman/mudra/internal/recorder"
	"github.com/ayusman/mudra/internal/sensor"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a JSON config file")
		mode       = flag.String("mode", "", "recording mode: off, predict or output")
		labelID    = flag.Int("label", 0, "label id of recorded sessions")
		operator   = flag.String("operator", "", "operator name used in dataset paths")
		dataDir    = flag.String("data", "", "export and database directory")
		ticksPath  = flag.String("ticks", "", "recorded tick file to replay")
		video      = flag.String("video", "", "colour video file or device index")
		addr       = flag.String("addr", "", "HTTP listen address")
		labelsPath = flag.String("labels", "", "label file with one \"<id> <name>\" per line")
		noTray     = flag.Bool("no-tray", false, "run without the system tray")
	)
	flag.Parse()

	fmt.Println("Mudra - Gesture Recording Station")

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}

	// Flags given on the command line override the config file
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["data"] {
		cfg.DataDir = *dataDir
	}
	if set["ticks"] {
		cfg.TicksPath = *ticksPath
	}
	if set["video"] {
		cfg.Video = *video
	}
	if set["addr"] {
		cfg.Addr = *addr
	}
	if set["labels"] {
		cfg.LabelsPath = *labelsPath
	}
	if *noTray {
		cfg.Tray = false
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	if cfg.TicksPath == "" {
		log.Fatal("No sensor source: pass -ticks with a recorded tick file")
	}
	source, err := sensor.NewReplaySource(sensor.ReplayConfig{
		TickPath: cfg.TicksPath,
		Video:    cfg.Video,
		Width:    cfg.ColorWidth,
		Height:   cfg.ColorHeight,
		Loop:     cfg.Loop,
	})
	if err != nil {
		log.Fatalf("Failed to open sensor source: %v", err)
	}
	log.Printf("Replaying %d ticks from %s", source.Len(), cfg.TicksPath)

	startMode, err := recorder.ParseMode(cfg.Mode)
	if err != nil {
		log.Fatalf("Invalid mode: %v", err)
	}

	application := app.New(app.Config{
		Store:           st,
		Source:          source,
		DataDir:         cfg.DataDir,
		ConsumerDir:     cfg.ConsumerDir,
		ConsumerTimeout: cfg.GetConsumerTimeout(),
		TickInterval:    cfg.GetTickInterval(),
		Alpha:           cfg.Alpha,
		ROIScale:        cfg.ROIScale,
		ROISize:         cfg.ROISize,
		Recorder: recorder.Config{
			MinPredict:     cfg.MinPredict,
			MinOutput:      cfg.MinOutput,
			SkeletonTarget: cfg.SkeletonTarget,
			ImageTarget:    cfg.ImageTarget,
		},
		Mode:     startMode,
		LabelID:  cfg.LabelID,
		Operator: cfg.Operator,
	})

	if cfg.LabelsPath != "" {
		entries, err := label.ParseFile(cfg.LabelsPath)
		if err != nil {
			log.Fatalf("Failed to read labels: %v", err)
		}
		if err := application.ImportLabels(entries); err != nil {
			log.Fatalf("Failed to import labels: %v", err)
		}
	}

	if err := application.RestoreSettings(); err != nil {
		log.Printf("Failed to restore settings: %v", err)
	}
	if err := applySessionFlags(application, set, *mode, *labelID, *operator); err != nil {
		log.Fatalf("Invalid flag: %v", err)
	}

	if err := application.DiscoverConsumers(); err != nil {
		log.Printf("Failed to discover consumers: %v", err)
	}

	webDir := findWebDir()
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{StaticDir: webDir, App: application})
	httpServer := &http.Server{Addr: cfg.Addr, Handler: srv}

	go func() {
		fmt.Printf("Starting server on %s\n", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	if err := application.Start(); err != nil {
		log.Fatalf("Failed to start pipeline: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tray {
		runTray(ctx, stop, application, statusURL(cfg.Addr))
	} else {
		<-ctx.Done()
	}

	log.Println("Shutting down")
	srv.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}
	application.Stop()
}

// applySessionFlags applies -mode, -label and -operator when they were given,
// taking precedence over restored settings.
func applySessionFlags(a *app.App, set map[string]bool, mode string, labelID int, operator string) error {
	if set["operator"] {
		if err := export.CheckName(operator); err != nil {
			return fmt.Errorf("operator: %w", err)
		}
		a.SetOperator(operator)
	}
	if set["label"] {
		a.SetLabel(labelID)
	}
	if set["mode"] {
		m, err := recorder.ParseMode(mode)
		if err != nil {
			return err
		}
		a.SetMode(m)
	}
	return nil
}

// runTray blocks in the tray loop until Quit is clicked or ctx is cancelled.
func runTray(ctx context.Context, stop context.CancelFunc, a *app.App, url string) {
	t := tray.New(a.Mode())
	t.OnMode(a.SetMode)
	t.OnOpen(func() { openBrowser(url) })
	t.OnQuit(stop)

	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				t.Quit()
				return
			case <-ticker.C:
				s := a.Status()
				if t.Mode() != s.Mode {
					t.SetMode(s.Mode)
				}
				t.SetSession(s.LabelID, s.LabelName, s.Recorded)
			}
		}
	}()

	t.Run()
}

func statusURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open %s: %v", url, err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.mudra/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".mudra", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
