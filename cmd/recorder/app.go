package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vedantwpatil/AutoReplay/internal/config"
	"github.com/vedantwpatil/AutoReplay/internal/editing"
	"github.com/vedantwpatil/AutoReplay/internal/library"
	"github.com/vedantwpatil/AutoReplay/internal/progress"
	"github.com/vedantwpatil/AutoReplay/internal/recording"
	"github.com/vedantwpatil/AutoReplay/internal/screencap"
	"github.com/vedantwpatil/AutoReplay/internal/target"
	"github.com/vedantwpatil/AutoReplay/internal/tracking"
)

type Application struct {
	config  config.Config
	logger  *slog.Logger
	hook    *tracking.HookSource
	session *recording.Session
	library *library.Store
	capture *screencap.Recorder
	guard   *target.Guard
	out     io.Writer
	lines   chan string

	ctx    context.Context
	cancel context.CancelFunc

	hotkeyMu sync.Mutex

	mu          sync.Mutex
	preview     []byte
	recordStart time.Time
	lastCapture *screencap.Capture
	stopWatch   context.CancelFunc
}

func NewApplication(cfg config.Config, logger *slog.Logger) (*Application, error) {
	ctx, cancel := context.WithCancel(context.Background())
	app := &Application{
		config: cfg,
		logger: logger,
		hook:   tracking.NewHookSource(cfg.Record.Relative, logger),
		guard:  newGuard(cfg),
		out:    os.Stdout,
		ctx:    ctx,
		cancel: cancel,
	}

	if err := app.registerHotkeys(); err != nil {
		cancel()
		return nil, err
	}

	reg, metrics, err := newRegistry()
	if err != nil {
		cancel()
		return nil, err
	}
	if cfg.Metrics.Addr != "" {
		go serveMetrics(ctx, cfg.Metrics.Addr, reg, logger)
	}

	app.session, err = newSession(cfg, app.hook, metrics, logger)
	if err != nil {
		cancel()
		return nil, err
	}
	if err := app.session.Attach(); err != nil {
		cancel()
		return nil, err
	}

	app.library, err = openLibrary(cfg, logger)
	if err != nil {
		app.session.Detach()
		cancel()
		return nil, err
	}
	app.capture = openCapture(cfg, logger)
	return app, nil
}

func (app *Application) registerHotkeys() error {
	bindings := []struct {
		name, chord string
		fn          func()
	}{
		{"record", app.config.Hotkeys.Record, app.toggleRecording},
		{"play", app.config.Hotkeys.Play, func() { app.report(app.play()) }},
		{"stop", app.config.Hotkeys.Stop, app.stopAll},
	}
	for _, b := range bindings {
		if b.chord == "" {
			continue
		}
		if err := app.hook.RegisterHotkey(b.name, b.chord, async(&app.hotkeyMu, b.fn)); err != nil {
			return err
		}
	}
	return nil
}

// async returns a func that runs fn on its own goroutine. Hotkey callbacks
// are invoked on the hook's event goroutine, which must not block; mu keeps
// the actions in press order.
func async(mu *sync.Mutex, fn func()) func() {
	return func() {
		go func() {
			mu.Lock()
			defer mu.Unlock()
			fn()
		}()
	}
}

// Run starts the input hook and serves the menu until exit.
func (app *Application) Run() error {
	go func() {
		if err := app.hook.Run(app.ctx); err != nil && !errors.Is(err, context.Canceled) {
			app.logger.Error("input hook stopped", "error", err)
		}
	}()
	app.lines = readLines(os.Stdin)

	for {
		if err := app.showMenu(); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			return err
		}
	}
}

// Close releases everything NewApplication opened.
func (app *Application) Close() {
	app.stopAll()
	app.session.Detach()
	app.cancel()
	if err := app.library.Close(); err != nil {
		app.logger.Error("close library", "error", err)
	}
}

var errExit = errors.New("exit")

func readLines(r io.Reader) chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
	}()
	return lines
}

// prompt prints label and waits for one line of input.
func (app *Application) prompt(label string) (string, error) {
	fmt.Fprint(app.out, label)
	select {
	case <-app.ctx.Done():
		return "", errExit
	case line, ok := <-app.lines:
		if !ok {
			return "", errExit
		}
		return line, nil
	}
}

func (app *Application) showMenu() error {
	fmt.Fprintln(app.out, "\nCommands:")
	fmt.Fprintln(app.out, "1. Start recording")
	fmt.Fprintln(app.out, "2. Stop recording")
	fmt.Fprintln(app.out, "3. Play")
	fmt.Fprintln(app.out, "4. Stop playback")
	fmt.Fprintln(app.out, "5. Save recording")
	fmt.Fprintln(app.out, "6. Load recording")
	fmt.Fprintln(app.out, "7. List recordings")
	fmt.Fprintln(app.out, "8. Delete recording")
	fmt.Fprintln(app.out, "9. Export recording")
	fmt.Fprintln(app.out, "10. Import recording")
	fmt.Fprintln(app.out, "11. Annotate last screen capture")
	fmt.Fprintln(app.out, "12. Exit")

	line, err := app.prompt("Choose an option: ")
	if err != nil {
		return err
	}
	choice, err := strconv.Atoi(line)
	if err != nil {
		fmt.Fprintln(app.out, "Invalid option")
		return nil
	}

	switch choice {
	case 1:
		app.report(app.startRecording())
	case 2:
		app.report(app.stopRecording())
	case 3:
		app.report(app.play())
	case 4:
		app.stopPlayback()
	case 5:
		app.report(app.save())
	case 6:
		app.report(app.load())
	case 7:
		app.report(app.list())
	case 8:
		app.report(app.withName("Recording to delete: ", app.library.Delete))
	case 9:
		app.report(app.export())
	case 10:
		app.report(app.importFile())
	case 11:
		app.report(app.annotate())
	case 12:
		return errExit
	default:
		fmt.Fprintln(app.out, "Invalid option")
	}
	return nil
}

// report prints a failed action without leaving the menu.
func (app *Application) report(err error) {
	if err == nil || errors.Is(err, errExit) {
		return
	}
	fmt.Fprintf(app.out, "Error: %v\n", err)
}

func (app *Application) toggleRecording() {
	if app.session.IsRecording() {
		app.report(app.stopRecording())
		return
	}
	app.report(app.startRecording())
}

func (app *Application) startRecording() error {
	if app.session.IsRecording() {
		return recording.ErrBusy
	}
	if app.config.Capture.Preview {
		shot, err := screencap.Preview(0)
		if err != nil {
			app.logger.Warn("preview capture failed", "error", err)
		}
		app.mu.Lock()
		app.preview = shot
		app.mu.Unlock()
	}

	// ffmpeg starts first so every recorded click falls inside the video
	startedCapture := false
	if app.capture != nil && !app.capture.Capturing() {
		name := "capture-" + time.Now().Format("20060102-150405")
		if _, err := app.capture.Start(app.ctx, name); err != nil {
			app.logger.Warn("screen capture not started", "error", err)
		} else {
			startedCapture = true
		}
	}

	recordStart := time.Now()
	if err := app.session.StartRecord(); err != nil {
		if startedCapture {
			_, _ = app.capture.Stop()
		}
		return err
	}
	app.mu.Lock()
	app.recordStart = recordStart
	app.mu.Unlock()

	fmt.Fprintln(app.out, "Recording... use the stop hotkey or menu option 2 to finish.")
	return nil
}

func (app *Application) stopRecording() error {
	if !app.session.IsRecording() {
		fmt.Fprintln(app.out, "Not recording")
		return nil
	}
	app.session.StopRecord()

	if app.capture != nil && app.capture.Capturing() {
		capture, err := app.capture.Stop()
		if err != nil {
			return err
		}
		app.mu.Lock()
		app.lastCapture = &capture
		app.mu.Unlock()
	}
	fmt.Fprintf(app.out, "Recorded %d events\n", len(app.session.Entries()))
	return nil
}

func (app *Application) play() error {
	if err := app.guard.Check(app.ctx); err != nil {
		return err
	}

	watchCtx, stopWatch := context.WithCancel(app.ctx)
	app.mu.Lock()
	if app.stopWatch != nil {
		app.stopWatch()
	}
	app.stopWatch = stopWatch
	app.mu.Unlock()

	err := app.session.Play(func(r recording.Report) {
		stopWatch()
		if r.Err != nil {
			fmt.Fprintf(app.out, "\nPlayback aborted after %d/%d events: %v\n", r.Dispatched, r.Total, r.Err)
			return
		}
		fmt.Fprintf(app.out, "\nPlayback finished: %d events in %v (max lag %v)\n",
			r.Dispatched, r.Elapsed.Round(time.Millisecond), r.MaxLag)
	})
	if err != nil {
		stopWatch()
		return err
	}

	bar := progress.NewBar("Replaying", app.out)
	go progress.Watch(watchCtx, bar, 100*time.Millisecond, app.session.Progress)
	return nil
}

func (app *Application) stopPlayback() {
	app.session.Stop(func() { fmt.Fprintln(app.out, "\nPlayback stopped") })
	app.mu.Lock()
	if app.stopWatch != nil {
		app.stopWatch()
		app.stopWatch = nil
	}
	app.mu.Unlock()
}

// stopAll halts playback and recording.
func (app *Application) stopAll() {
	app.stopPlayback()
	if app.session.IsRecording() {
		app.report(app.stopRecording())
	}
}

func (app *Application) handleSignals(sigChan chan os.Signal) {
	for sig := range sigChan {
		app.logger.Info("received signal", "signal", sig)
		switch {
		case app.session.IsRecording():
			app.report(app.stopRecording())
		case app.session.IsPlaying():
			app.stopPlayback()
		default:
			fmt.Fprintln(app.out, "Exiting application...")
			app.cancel()
			return
		}
	}
}

func (app *Application) withName(label string, fn func(string) error) error {
	name, err := app.prompt(label)
	if err != nil {
		return err
	}
	return fn(name)
}

func (app *Application) save() error {
	return app.withName("Save as: ", func(name string) error {
		app.mu.Lock()
		preview := app.preview
		app.mu.Unlock()
		rec, err := app.library.Save(library.Recording{
			Name:    name,
			Entries: app.session.Entries(),
			Preview: preview,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(app.out, "Saved %q (%d events)\n", rec.Name, len(rec.Entries))
		return nil
	})
}

func (app *Application) load() error {
	return app.withName("Recording to load: ", func(name string) error {
		rec, err := app.library.Load(name)
		if err != nil {
			return err
		}
		if err := app.session.Load(rec.Entries); err != nil {
			return err
		}
		fmt.Fprintf(app.out, "Loaded %q (%d events, %v)\n", rec.Name, len(rec.Entries), rec.Duration())
		return nil
	})
}

func (app *Application) list() error {
	summaries, err := app.library.List()
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintln(app.out, "No saved recordings")
		return nil
	}
	for _, s := range summaries {
		fmt.Fprintf(app.out, "%-20s %5d events %10v  %s\n",
			s.Name, s.Entries, s.Duration.Round(time.Millisecond), s.CreatedAt.Local().Format(time.DateTime))
	}
	return nil
}

func (app *Application) export() error {
	name, err := app.prompt("Recording to export: ")
	if err != nil {
		return err
	}
	path, err := app.prompt("Export path: ")
	if err != nil {
		return err
	}
	return app.library.Export(name, path)
}

func (app *Application) importFile() error {
	path, err := app.prompt("File to import: ")
	if err != nil {
		return err
	}
	name, err := app.prompt("Save as (empty keeps the stored name): ")
	if err != nil {
		return err
	}
	rec, err := app.library.Import(path, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(app.out, "Imported %q (%d events)\n", rec.Name, len(rec.Entries))
	return nil
}

func (app *Application) annotate() error {
	app.mu.Lock()
	capture, start := app.lastCapture, app.recordStart
	app.mu.Unlock()
	if capture == nil {
		fmt.Fprintln(app.out, "No screen capture available for editing")
		return nil
	}

	lead := max(start.Sub(capture.StartedAt), 0)
	overlay := editing.OverlayFrom(app.session.Entries(), lead)
	output := strings.TrimSuffix(capture.Path, ".mp4") + "-annotated.mp4"
	if err := editing.Annotate(capture.Path, output, overlay, editing.DefaultStyle(), app.logger); err != nil {
		return err
	}
	fmt.Fprintf(app.out, "Annotated video written to %s\n", output)
	return nil
}
