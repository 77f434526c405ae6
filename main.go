// Package main provides the entry point for the print layout application.
package main

import (
	"log"
	"os"
	"time"

	"printlayout/internal/app"
	"printlayout/internal/config"
	"printlayout/internal/version"
	"printlayout/ui/mainwindow"

	fyneapp "fyne.io/fyne/v2/app"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting Print Layout v%s", version.Version)

	cfg, err := config.NewManager()
	if err != nil {
		log.Fatalf("preferences unavailable: %v", err)
	}

	fyneApp := fyneapp.NewWithID("printlayout")
	fyneApp.Settings().SetTheme(&app.LayoutTheme{})

	state := app.NewState(cfg)
	defer state.Close()

	win := mainwindow.New(fyneApp, state)

	if len(os.Args) > 1 {
		if err := state.LoadProject(os.Args[1]); err != nil {
			log.Printf("load %s: %v", os.Args[1], err)
		}
	} else {
		win.CheckRecovery()
	}

	state.StartAutoSave()
	setupHotReload(win)

	win.ShowAndRun()
}

// setupHotReload restarts into a newly compiled binary during
// development.
func setupHotReload(win *mainwindow.MainWindow) {
	reloader := app.NewReloader(2 * time.Second)
	if reloader == nil {
		log.Println("hot reload: unable to determine executable path")
		return
	}
	log.Printf("hot reload: watching %s", reloader.ExecPath())

	reloader.OnUpgrade(func() {
		win.OfferRestart(reloader)
	})
	reloader.Start()
}
