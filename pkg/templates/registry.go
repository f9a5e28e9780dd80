package templates

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"jordanella.com/sun-clicker/internal/cv"
	"jordanella.com/sun-clicker/internal/logging"
)

// Defaults for directory scanning
const (
	DefaultDir    = "resources"
	DefaultPrefix = "sun"
)

// DefaultExtensions are the accepted template file extensions
var DefaultExtensions = []string{".png", ".jpg", ".jpeg"}

// Template is a preprocessed reference image plus its adaptive statistics.
// Values returned by the library are copies.
type Template struct {
	Name           string
	Path           string
	Gray           *image.Gray // Grayscale, already at the engine's downscale
	Width          int
	Height         int
	OriginalWidth  int
	OriginalHeight int
	Priority       int
	DetectionCount int

	order int
}

// Pattern returns the matching view of the template
func (t Template) Pattern() cv.Pattern {
	return cv.Pattern{Name: t.Name, Image: t.Gray}
}

// DetectionStat is one row of the detection report
type DetectionStat struct {
	Name     string
	Count    int
	Priority int
}

// LoadOptions controls directory scanning and preprocessing
type LoadOptions struct {
	Prefix     string   // Case-insensitive file name prefix
	Extensions []string // Accepted extensions, lower case with dot
	Downscale  float64  // Applied once at load time
	Cache      *ImageCache
	Logger     *logging.Logger
}

func (o *LoadOptions) withDefaults() {
	if o.Prefix == "" {
		o.Prefix = DefaultPrefix
	}
	if len(o.Extensions) == 0 {
		o.Extensions = DefaultExtensions
	}
	if o.Downscale <= 0 || o.Downscale > 1 {
		o.Downscale = 1
	}
	if o.Cache == nil {
		o.Cache = NewImageCache()
	}
	if o.Logger == nil {
		o.Logger = logging.NewLogger("TemplateLibrary")
	}
}

// Library holds the loaded templates. Priorities and counters are guarded by
// the library mutex; pixel data is immutable after load.
type Library struct {
	mu        sync.RWMutex
	templates []*Template
	byName    map[string]*Template
	dir       string
	downscale float64
	skipped   []error
}

// Load scans dir for template images and preprocesses them
func Load(dir string, opts LoadOptions) (*Library, error) {
	opts.withDefaults()

	info, err := os.Stat(dir)
	if err != nil {
		return nil, &LoadError{Dir: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &LoadError{Dir: dir, Err: fmt.Errorf("not a directory")}
	}

	manifest, err := LoadManifest(dir)
	if err != nil {
		return nil, &LoadError{Dir: dir, Err: err}
	}

	candidates, err := scan(dir, opts, manifest)
	if err != nil {
		return nil, &LoadError{Dir: dir, Err: err}
	}

	lib := &Library{
		byName:    make(map[string]*Template),
		dir:       dir,
		downscale: opts.Downscale,
	}

	for _, c := range candidates {
		path := c.path
		cached, err := opts.Cache.Get(path, opts.Downscale)
		if err != nil {
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				err = &DecodeError{Path: path, Err: err}
			}
			opts.Logger.WarnWithContext("Skipping template", map[string]interface{}{
				"file":  c.name,
				"error": err.Error(),
			})
			lib.skipped = append(lib.skipped, err)
			continue
		}

		name := c.name
		if _, dup := lib.byName[name]; dup {
			opts.Logger.Warn(fmt.Sprintf("Duplicate template name %s, keeping first", name))
			continue
		}
		b := cached.Gray.Bounds()
		t := &Template{
			Name:           name,
			Path:           path,
			Gray:           cached.Gray,
			Width:          b.Dx(),
			Height:         b.Dy(),
			OriginalWidth:  cached.OriginalWidth,
			OriginalHeight: cached.OriginalHeight,
			order:          len(lib.templates),
		}
		if entry, ok := manifest.lookup(name); ok {
			t.Priority = entry.Priority
		}

		lib.templates = append(lib.templates, t)
		lib.byName[name] = t

		opts.Logger.InfoWithContext("Loaded template", map[string]interface{}{
			"name": name,
			"size": fmt.Sprintf("%dx%d", t.Width, t.Height),
		})
	}

	if len(lib.templates) == 0 {
		return nil, &LoadError{Dir: dir, Err: ErrNoTemplates}
	}

	return lib, nil
}

// candidate is a directory entry to load. name is the entry as listed in the
// directory, path its symlink-resolved absolute location.
type candidate struct {
	name string
	path string
}

// scan lists candidate files: prefix matches plus manifest additions, minus
// disabled entries, deduplicated by resolved path, in name order
func scan(dir string, opts LoadOptions, manifest *Manifest) ([]candidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	prefix := strings.ToLower(opts.Prefix)
	seen := make(map[string]bool)
	var found []candidate

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		lower := strings.ToLower(name)

		me, listed := manifest.lookup(name)
		if listed && me.Disabled {
			continue
		}
		if !listed && !(strings.HasPrefix(lower, prefix) && hasExtension(lower, opts.Extensions)) {
			continue
		}

		resolved, err := resolve(filepath.Join(dir, name))
		if err != nil {
			opts.Logger.WarnWithContext("Cannot resolve template path", map[string]interface{}{
				"file":  name,
				"error": err.Error(),
			})
			continue
		}
		if seen[resolved] {
			continue
		}
		seen[resolved] = true
		found = append(found, candidate{name: name, path: resolved})
	}

	if manifest != nil {
		for _, e := range manifest.Templates {
			if _, err := os.Stat(filepath.Join(dir, e.File)); err != nil {
				opts.Logger.Warn(fmt.Sprintf("Manifest names missing file %s", e.File))
			}
		}
	}

	return found, nil
}

func resolve(path string) (string, error) {
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	return filepath.Abs(target)
}

func hasExtension(name string, exts []string) bool {
	ext := filepath.Ext(name)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// Dir returns the scanned directory
func (l *Library) Dir() string {
	return l.dir
}

// Downscale returns the factor templates were shrunk by
func (l *Library) Downscale() float64 {
	return l.downscale
}

// Skipped returns the per-file errors absorbed during load
func (l *Library) Skipped() []error {
	return l.skipped
}

// Count returns the number of loaded templates
func (l *Library) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.templates)
}

// Names returns template names in load order
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, len(l.templates))
	for i, t := range l.templates {
		names[i] = t.Name
	}
	return names
}

// Get returns a copy of one template
func (l *Library) Get(name string) (Template, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	t, ok := l.byName[name]
	if !ok {
		return Template{}, false
	}
	return *t, true
}

// UpdatePriority raises a template's priority by delta. Priorities only grow.
func (l *Library) UpdatePriority(name string, delta int) error {
	if delta < 0 {
		return fmt.Errorf("priority delta must not be negative: %d", delta)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.byName[name]
	if !ok {
		return fmt.Errorf("template '%s' not found", name)
	}
	t.Priority += delta
	return nil
}

// RecordDetection counts an accepted match and bumps priority by one
func (l *Library) RecordDetection(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.byName[name]
	if !ok {
		return fmt.Errorf("template '%s' not found", name)
	}
	t.Priority++
	t.DetectionCount++
	return nil
}

// SnapshotForSearch returns copies ordered by priority descending, ties in
// load order
func (l *Library) SnapshotForSearch() []Template {
	l.mu.RLock()
	out := make([]Template, len(l.templates))
	for i, t := range l.templates {
		out[i] = *t
	}
	l.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].order < out[j].order
	})
	return out
}

// Patterns returns the search-ordered matching views
func (l *Library) Patterns() []cv.Pattern {
	snap := l.SnapshotForSearch()
	patterns := make([]cv.Pattern, len(snap))
	for i, t := range snap {
		patterns[i] = t.Pattern()
	}
	return patterns
}

// Stats returns templates with at least one detection, most detected first
func (l *Library) Stats() []DetectionStat {
	l.mu.RLock()
	var stats []DetectionStat
	for _, t := range l.templates {
		if t.DetectionCount > 0 {
			stats = append(stats, DetectionStat{Name: t.Name, Count: t.DetectionCount, Priority: t.Priority})
		}
	}
	l.mu.RUnlock()

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Name < stats[j].Name
	})
	return stats
}
