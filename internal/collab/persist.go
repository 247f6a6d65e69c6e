package collab

import (
	"context"
	"sync"
	"time"

	buildrerrors "github.com/buildr-dev/buildr/internal/errors"
	"github.com/buildr-dev/buildr/internal/logging"
	"github.com/buildr-dev/buildr/internal/types"
)

// Snapshot is what the persistence bridge hands to durable storage: the
// component list as of one moment, keyed by project and owning user.
type Snapshot struct {
	ProjectID  string
	Name       string
	UserID     string
	Components []types.Component
}

// Saver is the external persistence facade. The bridge only needs
// write-snapshot semantics.
type Saver interface {
	SaveProject(ctx context.Context, snapshot Snapshot) error
}

// Bridge debounces local document mutations into snapshot saves. Saving is
// at-least-once: a failed save leaves the dirty flag set so the next
// debounce cycle retries, and the user keeps editing throughout.
type Bridge struct {
	store     *Store
	saver     Saver
	logger    logging.Logger
	debouncer *Debouncer
	unsub     func()

	projectID string
	name      string
	userID    string

	editing bool
	dirty   bool
	mutex   sync.Mutex
}

// NewBridge wires a store to a saver. delay is the quiet period after the
// last local mutation before an autosave fires (zero means 2s).
func NewBridge(store *Store, saver Saver, projectID, name, userID string, delay time.Duration, logger logging.Logger) *Bridge {
	if delay == 0 {
		delay = 2 * time.Second
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}

	b := &Bridge{
		store:     store,
		saver:     saver,
		logger:    logger.WithComponent("persistence"),
		projectID: projectID,
		name:      name,
		userID:    userID,
		editing:   true,
	}
	b.debouncer = NewDebouncer(delay, b.autosave)
	b.unsub = store.Observe(func(event types.ChangeEvent) {
		// Remote changes are already durable on the peer that made them.
		if event.Origin != types.OriginLocal {
			return
		}
		b.mutex.Lock()
		editing := b.editing
		if editing {
			b.dirty = true
		}
		b.mutex.Unlock()

		if editing {
			b.debouncer.Trigger()
		}
	})
	return b
}

// SetEditing toggles whether autosave is armed. Preview and read-only views
// observe the document without scheduling saves.
func (b *Bridge) SetEditing(editing bool) {
	b.mutex.Lock()
	b.editing = editing
	b.mutex.Unlock()
}

// Dirty reports whether there are unsaved local changes.
func (b *Bridge) Dirty() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.dirty
}

func (b *Bridge) autosave() {
	if err := b.SaveNow(context.Background()); err != nil {
		// Dirty stays set; the next local mutation re-arms the debounce.
		b.logger.Warn(context.Background(), err, "autosave failed, will retry",
			"project_id", b.projectID)
	}
}

// SaveNow snapshots the current component list and saves it synchronously,
// bypassing the debounce. Used by the explicit save action.
func (b *Bridge) SaveNow(ctx context.Context) error {
	snapshot := Snapshot{
		ProjectID:  b.projectID,
		Name:       b.name,
		UserID:     b.userID,
		Components: b.store.Components(),
	}

	if err := b.saver.SaveProject(ctx, snapshot); err != nil {
		return &buildrerrors.SaveError{ProjectID: b.projectID, Err: err}
	}

	b.mutex.Lock()
	b.dirty = false
	b.mutex.Unlock()

	b.logger.Debug(ctx, "project snapshot saved",
		"project_id", b.projectID, "components", len(snapshot.Components))
	return nil
}

// Close cancels any pending autosave and detaches from the store. A dirty
// document at close time is the caller's cue to offer a manual save.
func (b *Bridge) Close() {
	b.debouncer.Stop()
	b.unsub()
}
