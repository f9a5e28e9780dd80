package main

import (
	"log"

	"fyne.io/fyne/v2/app"
	"jordanella.com/sun-clicker/internal/config"
	"jordanella.com/sun-clicker/internal/coordinator"
	"jordanella.com/sun-clicker/internal/gui"
)

func main() {
	// Create Fyne application
	myApp := app.NewWithID("com.jordanella.sun-clicker")
	myApp.Settings().SetTheme(&gui.ClickerTheme{})

	// Create main window
	mainWindow := myApp.NewWindow("Sun Clicker")
	mainWindow.Resize(gui.DefaultWindowSize)

	// The viewer exists before the engine so annotated frames have a sink
	var controller *gui.Controller
	viewer := gui.NewDebugViewer(myApp, func() {
		if controller != nil {
			controller.HideDebug()
		}
	})

	session, err := coordinator.New(coordinator.Options{
		SettingsPath: config.DefaultPath,
		Display:      viewer.Display,
	})
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	controller = gui.NewController(myApp, mainWindow, gui.Options{
		Engine:       session.Loop,
		Settings:     session.Settings,
		SettingsPath: session.SettingsPath,
		Bus:          session.Bus,
		Journal:      session.Journal,
		Viewer:       viewer,
	})

	// Build UI with tabs
	content := controller.BuildUI()

	mainWindow.SetContent(content)
	mainWindow.SetMaster()
	mainWindow.ShowAndRun()

	// Cleanup on exit
	if err := session.Close(); err != nil {
		log.Printf("Shutdown: %v", err)
	}
}
