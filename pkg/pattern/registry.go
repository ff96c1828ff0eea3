package pattern

import (
	"bytes"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/fsnotify.v1"
	"gopkg.in/yaml.v3"
)

//go:embed rules/*.yaml
var defaultRulesFS embed.FS

// Registry manages a collection of citation rules.
// Safe for concurrent use; Recognize may run while a watcher reloads files.
type Registry struct {
	mu       sync.RWMutex
	rules    map[string]*Rule
	files    map[string][]string // manifest path -> rule IDs it registered
	dir      string
	watcher  *fsnotify.Watcher
	stopChan chan struct{}
	onChange func(event string, rule *Rule)
	logger   *slog.Logger
}

// NewRegistry creates an empty rule registry.
func NewRegistry() *Registry {
	return &Registry{
		rules:  make(map[string]*Rule),
		files:  make(map[string][]string),
		logger: slog.Default(),
	}
}

// NewDefaultRegistry creates a registry holding the built-in UK rules.
func NewDefaultRegistry() (*Registry, error) {
	registry := NewRegistry()
	if err := registry.LoadDefaults(); err != nil {
		return nil, err
	}
	return registry, nil
}

// NewRegistryWithDirectory creates a new registry and loads manifests from
// the directory.
func NewRegistryWithDirectory(dir string) (*Registry, error) {
	registry := NewRegistry()
	if err := registry.LoadDirectory(dir); err != nil {
		return nil, err
	}
	return registry, nil
}

// SetLogger sets the logger used for watcher and reload failures.
func (r *Registry) SetLogger(logger *slog.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// SetOnChange sets a callback function that is called when rules change.
func (r *Registry) SetOnChange(fn func(event string, rule *Rule)) {
	r.onChange = fn
}

// Register validates, compiles and adds a rule. A rule with an ID that is
// already registered from another source is rejected.
func (r *Registry) Register(rule *Rule) error {
	if rule == nil {
		return fmt.Errorf("rule cannot be nil")
	}
	if errs := ValidateRule(rule); len(errs) > 0 {
		return fmt.Errorf("invalid rule: %w", errs)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.rules[rule.ID]; ok && existing.Source != rule.Source {
		return fmt.Errorf("rule %q already registered from %q", rule.ID, existing.Source)
	}
	r.rules[rule.ID] = rule
	return nil
}

// Unregister removes a rule by ID.
func (r *Registry) Unregister(ruleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rules[ruleID]; !ok {
		return fmt.Errorf("rule %q not found", ruleID)
	}
	delete(r.rules, ruleID)
	return nil
}

// Get returns a rule by ID.
func (r *Registry) Get(ruleID string) (*Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[ruleID]
	return rule, ok
}

// List returns all rules ordered by descending priority, then ID.
func (r *Registry) List() []*Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rules := make([]*Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority > rules[j].Priority
		}
		return rules[i].ID < rules[j].ID
	})
	return rules
}

// Count returns the number of registered rules.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}

// Recognize runs every rule over text and returns all matches ordered by
// start, longer matches first, then by descending priority. Overlapping
// matches from different rules are all returned.
func (r *Registry) Recognize(text string) []Match {
	var matches []Match
	for _, rule := range r.List() {
		matches = append(matches, rule.FindAll(text)...)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Start != matches[j].Start {
			return matches[i].Start < matches[j].Start
		}
		if matches[i].End != matches[j].End {
			return matches[i].End > matches[j].End
		}
		return matches[i].Priority > matches[j].Priority
	})
	return matches
}

// LoadDefaults registers the embedded UK rule manifests.
func (r *Registry) LoadDefaults() error {
	entries, err := defaultRulesFS.ReadDir("rules")
	if err != nil {
		return fmt.Errorf("reading embedded rules: %w", err)
	}
	for _, entry := range entries {
		embeddedPath := "rules/" + entry.Name()
		data, err := defaultRulesFS.ReadFile(embeddedPath)
		if err != nil {
			return fmt.Errorf("reading %s: %w", embeddedPath, err)
		}
		if err := r.LoadManifest(data, "embedded:"+embeddedPath); err != nil {
			return err
		}
	}
	return nil
}

// LoadDirectory loads all YAML manifests from a directory.
// A directory that does not exist holds no rules.
func (r *Registry) LoadDirectory(dir string) error {
	r.dir = dir

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("checking directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var loadErrors []string
	for _, entry := range entries {
		if entry.IsDir() || !isManifestFile(entry.Name()) {
			continue
		}
		if err := r.LoadFile(filepath.Join(dir, entry.Name())); err != nil {
			loadErrors = append(loadErrors, fmt.Sprintf("%s: %v", entry.Name(), err))
		}
	}

	if len(loadErrors) > 0 {
		return fmt.Errorf("errors loading rules: %s", strings.Join(loadErrors, "; "))
	}
	return nil
}

// LoadFile loads a single manifest file. Rules the file registered on an
// earlier load and no longer declares are removed.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}
	return r.LoadManifest(data, path)
}

// LoadManifest parses a YAML manifest and registers its rules under source.
// Either every rule in the manifest is registered or none is.
func (r *Registry) LoadManifest(data []byte, source string) error {
	var manifest Manifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&manifest); err != nil {
		return fmt.Errorf("parsing YAML %s: %w", source, err)
	}

	var errs ValidationErrors
	seenIDs := make(map[string]bool)
	for ruleIndex, rule := range manifest.Rules {
		if rule == nil {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("rules[%d]", ruleIndex), Message: "empty rule"})
			continue
		}
		rule.Source = source
		errs = append(errs, ValidateRule(rule)...)
		if seenIDs[rule.ID] {
			errs = append(errs, ValidationError{RuleID: rule.ID, Field: "id", Message: "duplicate id in manifest"})
		}
		seenIDs[rule.ID] = true
	}
	if len(errs) > 0 {
		return fmt.Errorf("manifest %s: %w", source, errs)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rule := range manifest.Rules {
		if existing, ok := r.rules[rule.ID]; ok && existing.Source != source {
			return fmt.Errorf("manifest %s: rule %q already registered from %q", source, rule.ID, existing.Source)
		}
	}

	for _, previousID := range r.files[source] {
		if !seenIDs[previousID] {
			delete(r.rules, previousID)
		}
	}
	ruleIDs := make([]string, 0, len(manifest.Rules))
	for _, rule := range manifest.Rules {
		r.rules[rule.ID] = rule
		ruleIDs = append(ruleIDs, rule.ID)
	}
	r.files[source] = ruleIDs
	return nil
}

// Reload drops the rules loaded from the configured directory and loads it
// again. Embedded and directly registered rules are kept.
func (r *Registry) Reload() error {
	if r.dir == "" {
		return fmt.Errorf("no directory configured for reload")
	}

	r.mu.Lock()
	for source, ruleIDs := range r.files {
		if strings.HasPrefix(source, "embedded:") {
			continue
		}
		for _, ruleID := range ruleIDs {
			delete(r.rules, ruleID)
		}
		delete(r.files, source)
	}
	r.mu.Unlock()

	return r.LoadDirectory(r.dir)
}

// Watch starts watching the manifest directory for changes.
func (r *Registry) Watch() error {
	if r.dir == "" {
		return fmt.Errorf("no directory configured for watching")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	if err := watcher.Add(r.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watching directory %s: %w", r.dir, err)
	}

	r.watcher = watcher
	r.stopChan = make(chan struct{})
	go r.watchLoop(watcher, r.stopChan)
	return nil
}

// watchLoop handles file system events.
func (r *Registry) watchLoop(watcher *fsnotify.Watcher, stopChan chan struct{}) {
	for {
		select {
		case <-stopChan:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !isManifestFile(event.Name) {
				continue
			}

			switch {
			case event.Op&fsnotify.Create == fsnotify.Create:
				r.handleFileChange(event.Name, "create")
			case event.Op&fsnotify.Write == fsnotify.Write:
				r.handleFileChange(event.Name, "modify")
			case event.Op&fsnotify.Remove == fsnotify.Remove,
				event.Op&fsnotify.Rename == fsnotify.Rename:
				r.handleFileRemove(event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			r.logger.Warn("rule watcher error", "dir", r.dir, "error", err)
		}
	}
}

func (r *Registry) handleFileChange(path string, eventType string) {
	if err := r.LoadFile(path); err != nil {
		r.logger.Warn("rule manifest not loaded", "path", path, "error", err)
		return
	}
	r.logger.Info("rule manifest loaded", "path", path, "event", eventType)

	if r.onChange != nil {
		r.mu.RLock()
		ruleIDs := append([]string(nil), r.files[path]...)
		r.mu.RUnlock()
		for _, ruleID := range ruleIDs {
			if rule, ok := r.Get(ruleID); ok {
				r.onChange(eventType, rule)
			}
		}
	}
}

func (r *Registry) handleFileRemove(path string) {
	r.mu.Lock()
	removedIDs := r.files[path]
	for _, ruleID := range removedIDs {
		delete(r.rules, ruleID)
	}
	delete(r.files, path)
	r.mu.Unlock()

	r.logger.Info("rule manifest removed", "path", path, "rules", len(removedIDs))
	if r.onChange != nil {
		r.onChange("remove", nil)
	}
}

// StopWatch stops watching the manifest directory.
func (r *Registry) StopWatch() {
	if r.stopChan != nil {
		close(r.stopChan)
		r.stopChan = nil
	}
	if r.watcher != nil {
		r.watcher.Close()
		r.watcher = nil
	}
}

func isManifestFile(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
