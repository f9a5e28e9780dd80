package gui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"jordanella.com/sun-clicker/internal/bot"
	"jordanella.com/sun-clicker/internal/config"
	"jordanella.com/sun-clicker/internal/cv"
)

// SettingsForm holds the raw text of the engine settings form
type SettingsForm struct {
	TemplateDir     string
	TemplatePrefix  string
	Extensions      string
	Downscale       string
	ROI             string
	Workers         string
	Parallel        bool
	ClickCooldownMs string
	DuplicateRadius string
	DuplicateWinMs  string
	PostClickMs     string
	FrameSkip       string
}

// FormFromConfig renders cfg into form text
func FormFromConfig(cfg bot.Config) SettingsForm {
	return SettingsForm{
		TemplateDir:     cfg.TemplateDir,
		TemplatePrefix:  cfg.TemplatePrefix,
		Extensions:      strings.Join(cfg.TemplateExtensions, ","),
		Downscale:       strconv.FormatFloat(cfg.Downscale, 'f', -1, 64),
		ROI:             cv.FormatRect(cfg.ROI),
		Workers:         strconv.Itoa(cfg.Workers),
		Parallel:        cfg.Parallel,
		ClickCooldownMs: strconv.FormatInt(cfg.ClickCooldown.Milliseconds(), 10),
		DuplicateRadius: strconv.FormatFloat(cfg.DuplicateRadius, 'f', -1, 64),
		DuplicateWinMs:  strconv.FormatInt(cfg.DuplicateWindow.Milliseconds(), 10),
		PostClickMs:     strconv.FormatInt(cfg.PostClickDelay.Milliseconds(), 10),
		FrameSkip:       strconv.Itoa(cfg.FrameSkip),
	}
}

// Apply parses the form over base and validates the result
func (f SettingsForm) Apply(base bot.Config) (bot.Config, error) {
	cfg := base

	cfg.TemplateDir = strings.TrimSpace(f.TemplateDir)
	cfg.TemplatePrefix = strings.TrimSpace(f.TemplatePrefix)
	if exts := config.ParseExtensions(f.Extensions); len(exts) > 0 {
		cfg.TemplateExtensions = exts
	}

	var err error
	if cfg.Downscale, err = parseFloat("Downscale", f.Downscale); err != nil {
		return base, err
	}
	if cfg.DuplicateRadius, err = parseFloat("Duplicate radius", f.DuplicateRadius); err != nil {
		return base, err
	}
	if cfg.Workers, err = parseInt("Workers", f.Workers); err != nil {
		return base, err
	}
	if cfg.FrameSkip, err = parseInt("Frame skip", f.FrameSkip); err != nil {
		return base, err
	}
	if cfg.ClickCooldown, err = parseMillis("Click cooldown", f.ClickCooldownMs); err != nil {
		return base, err
	}
	if cfg.DuplicateWindow, err = parseMillis("Duplicate window", f.DuplicateWinMs); err != nil {
		return base, err
	}
	if cfg.PostClickDelay, err = parseMillis("Post-click delay", f.PostClickMs); err != nil {
		return base, err
	}
	cfg.Parallel = f.Parallel

	if cfg.ROI, err = cv.ParseRect(f.ROI); err != nil {
		return base, fmt.Errorf("ROI: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return base, err
	}
	return cfg, nil
}

func parseFloat(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: not a number: %q", name, s)
	}
	return v, nil
}

func parseInt(name, s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%s: not a whole number: %q", name, s)
	}
	return v, nil
}

func parseMillis(name, s string) (time.Duration, error) {
	v, err := parseInt(name, s)
	if err != nil {
		return 0, err
	}
	return time.Duration(v) * time.Millisecond, nil
}

// SettingsTab edits the engine settings applied on the next Start
type SettingsTab struct {
	controller *Controller

	// Form widgets
	templateDirEntry *widget.Entry
	prefixEntry      *widget.Entry
	extensionsEntry  *widget.Entry
	downscaleEntry   *widget.Entry
	roiEntry         *widget.Entry
	workersEntry     *widget.Entry
	parallelCheck    *widget.Check
	cooldownEntry    *widget.Entry
	radiusEntry      *widget.Entry
	windowEntry      *widget.Entry
	postClickEntry   *widget.Entry
	frameSkipEntry   *widget.Entry
}

// NewSettingsTab creates a new settings tab
func NewSettingsTab(ctrl *Controller) *SettingsTab {
	return &SettingsTab{controller: ctrl}
}

// Build constructs the settings UI
func (s *SettingsTab) Build() fyne.CanvasObject {
	header := widget.NewLabelWithStyle("Engine Settings", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	s.templateDirEntry = widget.NewEntry()
	s.prefixEntry = widget.NewEntry()
	s.extensionsEntry = widget.NewEntry()
	s.downscaleEntry = widget.NewEntry()
	s.roiEntry = widget.NewEntry()
	s.roiEntry.SetPlaceHolder("x,y,width,height (empty for full frame)")
	s.workersEntry = widget.NewEntry()
	s.parallelCheck = widget.NewCheck("", nil)
	s.cooldownEntry = widget.NewEntry()
	s.radiusEntry = widget.NewEntry()
	s.windowEntry = widget.NewEntry()
	s.postClickEntry = widget.NewEntry()
	s.frameSkipEntry = widget.NewEntry()

	browseBtn := widget.NewButton("Browse", func() {
		s.browseForTemplateDir()
	})
	templateDirContainer := container.NewBorder(nil, nil, nil, browseBtn, s.templateDirEntry)

	s.load()

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Template folder", Widget: templateDirContainer},
			{Text: "Template prefix", Widget: s.prefixEntry},
			{Text: "Extensions", Widget: s.extensionsEntry},
			{Text: "Downscale", Widget: s.downscaleEntry},
			{Text: "Search region (ROI)", Widget: s.roiEntry},
			{Text: "Parallel search", Widget: s.parallelCheck},
			{Text: "Workers", Widget: s.workersEntry},
			{Text: "Click cooldown (ms)", Widget: s.cooldownEntry},
			{Text: "Duplicate radius (px)", Widget: s.radiusEntry},
			{Text: "Duplicate window (ms)", Widget: s.windowEntry},
			{Text: "Post-click delay (ms)", Widget: s.postClickEntry},
			{Text: "Frame skip", Widget: s.frameSkipEntry},
		},
		OnSubmit: func() {
			s.apply(true)
		},
		OnCancel: func() {
			s.load()
		},
		SubmitText: "Apply and save",
		CancelText: "Reset",
	}

	applyBtn := widget.NewButton("Apply", func() {
		s.apply(false)
	})

	return container.NewVScroll(container.NewVBox(
		header,
		widget.NewLabel("Changes take effect the next time the engine starts."),
		form,
		applyBtn,
	))
}

// load fills the form from the engine's pending configuration
func (s *SettingsTab) load() {
	f := FormFromConfig(s.controller.engine.Config())

	s.templateDirEntry.SetText(f.TemplateDir)
	s.prefixEntry.SetText(f.TemplatePrefix)
	s.extensionsEntry.SetText(f.Extensions)
	s.downscaleEntry.SetText(f.Downscale)
	s.roiEntry.SetText(f.ROI)
	s.workersEntry.SetText(f.Workers)
	s.parallelCheck.SetChecked(f.Parallel)
	s.cooldownEntry.SetText(f.ClickCooldownMs)
	s.radiusEntry.SetText(f.DuplicateRadius)
	s.windowEntry.SetText(f.DuplicateWinMs)
	s.postClickEntry.SetText(f.PostClickMs)
	s.frameSkipEntry.SetText(f.FrameSkip)
}

func (s *SettingsTab) form() SettingsForm {
	return SettingsForm{
		TemplateDir:     s.templateDirEntry.Text,
		TemplatePrefix:  s.prefixEntry.Text,
		Extensions:      s.extensionsEntry.Text,
		Downscale:       s.downscaleEntry.Text,
		ROI:             s.roiEntry.Text,
		Workers:         s.workersEntry.Text,
		Parallel:        s.parallelCheck.Checked,
		ClickCooldownMs: s.cooldownEntry.Text,
		DuplicateRadius: s.radiusEntry.Text,
		DuplicateWinMs:  s.windowEntry.Text,
		PostClickMs:     s.postClickEntry.Text,
		FrameSkip:       s.frameSkipEntry.Text,
	}
}

// apply validates the form, hands it to the engine and optionally saves
func (s *SettingsTab) apply(save bool) {
	window := s.controller.window

	cfg, err := s.form().Apply(s.controller.engine.Config())
	if err != nil {
		dialog.ShowError(err, window)
		return
	}

	if err := s.controller.engine.Reconfigure(cfg); err != nil {
		if errors.Is(err, bot.ErrRunning) {
			err = fmt.Errorf("stop the engine before changing settings")
		}
		dialog.ShowError(err, window)
		return
	}
	s.controller.settings.Engine = cfg

	if save {
		if err := s.controller.SaveSettings(); err != nil {
			dialog.ShowError(err, window)
			return
		}
		dialog.ShowInformation("Settings", "Settings saved to "+s.controller.settingsPath, window)
	}
}

// browseForTemplateDir opens a folder browser for the template directory
func (s *SettingsTab) browseForTemplateDir() {
	folderDialog := dialog.NewFolderOpen(func(folder fyne.ListableURI, err error) {
		if err != nil {
			dialog.ShowError(fmt.Errorf("error selecting folder: %w", err), s.controller.window)
			return
		}
		if folder == nil {
			return // User cancelled
		}
		s.templateDirEntry.SetText(folder.Path())
	}, s.controller.window)

	folderDialog.Show()
}
