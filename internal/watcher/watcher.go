// Package watcher detects external configuration changes and turns them
// into restart change sets. It watches the stack configuration file and,
// on change, diffs the new service set against the running registry.
package watcher

import (
	"context"
	"path/filepath"
	"reflect"
	"time"

	"github.com/fsnotify/fsnotify"

	"nodestack/internal/config"
	"nodestack/internal/logger"
	"nodestack/internal/registry"
	"nodestack/internal/types"
)

// ChangeHandler receives the diffed change set when the config changes
type ChangeHandler func(changed []string, profileChanges map[string]types.ChangeKind)

// Watcher watches the configuration file for external edits
type Watcher struct {
	path     string
	baseline *registry.Registry
	handler  ChangeHandler
	debounce time.Duration
}

// New creates a config watcher. The registry seeds the diff baseline;
// the baseline advances to each successfully loaded configuration so an
// already-handled edit is not reported again on the next save. The
// process registry itself stays immutable; descriptor changes take
// effect as restarts of the affected services.
func New(path string, reg *registry.Registry, handler ChangeHandler) *Watcher {
	return &Watcher{
		path:     path,
		baseline: reg,
		handler:  handler,
		debounce: 500 * time.Millisecond,
	}
}

// Run watches until the context is done. Editors typically replace the
// file rather than write in place, so the parent directory is watched and
// events are filtered by name.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			// Debounce: editors produce bursts of events per save
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.WithError(err).Warn("config watch error")

		case <-fire:
			w.reload()
		}
	}
}

// reload parses the new configuration and hands the diff to the handler
func (w *Watcher) reload() {
	cfg, err := config.Load(w.path)
	if err != nil {
		logger.WithError(err).Error("changed configuration failed to load, ignoring")
		return
	}

	updated := registry.FromConfig(cfg)
	changed, profileChanges := Diff(w.baseline, updated)
	w.baseline = updated
	if len(changed) == 0 {
		logger.Debug("configuration changed but no services affected")
		return
	}

	logger.WithFields(logger.Fields{
		"changed":  changed,
		"profiles": profileChanges,
	}).Info("configuration change detected")

	w.handler(changed, profileChanges)
}

// Diff compares two registries and produces the changed service names
// plus per-profile change classification. Services of a newly appearing
// profile and services of a disappearing profile are included in the
// changed set so the orchestrator can account for them as skipped.
func Diff(old, updated *registry.Registry) ([]string, map[string]types.ChangeKind) {
	var changed []string
	profileChanges := map[string]types.ChangeKind{}

	oldProfiles := map[string]bool{}
	for _, profile := range old.Profiles() {
		oldProfiles[profile] = true
	}
	newProfiles := map[string]bool{}
	for _, profile := range updated.Profiles() {
		newProfiles[profile] = true
	}

	for profile := range newProfiles {
		if !oldProfiles[profile] {
			profileChanges[profile] = types.ChangeProfileAdded
		}
	}
	for profile := range oldProfiles {
		if !newProfiles[profile] {
			profileChanges[profile] = types.ChangeProfileRemoved
		}
	}

	// Existing services with edited descriptors need a restart
	for _, name := range updated.Names() {
		newSvc, _ := updated.Get(name)
		oldSvc, ok := old.Get(name)
		if !ok {
			// New service: include it so the plan classifies it by its
			// profile's change kind
			changed = append(changed, name)
			continue
		}
		if !reflect.DeepEqual(oldSvc, newSvc) {
			changed = append(changed, name)
		}
	}

	// Services removed together with their profile are torn down
	// externally; include them so they are reported as skipped
	for _, name := range old.Names() {
		if !updated.Has(name) {
			svc, _ := old.Get(name)
			if profileChanges[svc.Profile] == types.ChangeProfileRemoved {
				changed = append(changed, name)
			}
		}
	}

	return changed, profileChanges
}
