package harvest

import (
	"context"
	"fmt"
	"time"

	"agencyharvest/internal/document"
	"agencyharvest/internal/registry"
	"agencyharvest/internal/store"
)

// Session is a conversation with the remote lookup form.
type Session interface {
	// Submit fills in the query and triggers the search.
	Submit(ctx context.Context, query string) error
	// AwaitRendered returns the page once any of the element ids in markers is present.
	AwaitRendered(ctx context.Context, markers ...string) (*document.Tree, error)
	// Reset clears sticky result state before the next query.
	Reset(ctx context.Context) error
	Close() error
}

type Opener interface {
	Open(ctx context.Context) (Session, error)
}

// OpenerFunc adapts a function to an Opener.
type OpenerFunc func(ctx context.Context) (Session, error)

func (f OpenerFunc) Open(ctx context.Context) (Session, error) {
	return f(ctx)
}

// Store is the part of store.Store the controller writes through.
type Store interface {
	Upsert(ctx context.Context, records []registry.Record) store.UpsertReport
	SaveCheckpoint(ctx context.Context, checkpoint store.Checkpoint) error
	LoadCheckpoint(ctx context.Context, name string) (store.Checkpoint, error)
}

type Status int32

const (
	StatusIdle Status = iota
	StatusRunning
	StatusPaused
	StatusFinished
	StatusAborted
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusPaused:
		return "paused"
	case StatusFinished:
		return "finished"
	case StatusAborted:
		return "aborted"
	default:
		return fmt.Sprintf("status(%d)", int32(s))
	}
}

// EnumerationState holds the counters of one run.
type EnumerationState struct {
	SuccessfulQueries   int
	FailedQueries       int
	ConsecutiveFailures int
	// CurrentKey is the next key that has not been fully processed.
	CurrentKey int
	Inserted   int
	Updated    int
}

type Summary struct {
	RunID  string
	Status Status
	// StartKey is where the run began, it differs from Config.Start after a resume.
	StartKey int
	State    EnumerationState
}

type Config struct {
	// Start and End bound the keys to sweep, End is exclusive.
	Start int
	End   int

	CooldownThreshold int
	CooldownDuration  time.Duration
	DelayMin          time.Duration
	DelayMax          time.Duration
	ResetDelay        time.Duration
	// FaultPause is waited after an iteration that panicked.
	FaultPause time.Duration

	// CheckpointName prefixes the checkpoint key, which also carries the range so that
	// sweeps over different ranges keep separate cursors.
	CheckpointName  string
	CheckpointEvery int
	// Resume starts from the saved checkpoint when it lies within [Start, End).
	Resume bool

	// DumpDir receives the pages that could not be classified as results or a negative answer.
	DumpDir string
}

func DefaultConfig() Config {
	return Config{
		Start:             1000,
		End:               100000,
		CooldownThreshold: 50,
		CooldownDuration:  10 * time.Second,
		DelayMin:          time.Second,
		DelayMax:          3 * time.Second,
		ResetDelay:        time.Second,
		FaultPause:        5 * time.Second,
		CheckpointName:    "tursab",
		CheckpointEvery:   100,
	}
}

// WithDefaults fills unset tunables, the range is left alone.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.CooldownThreshold <= 0 {
		c.CooldownThreshold = d.CooldownThreshold
	}
	if c.CooldownDuration <= 0 {
		c.CooldownDuration = d.CooldownDuration
	}
	if c.DelayMin <= 0 && c.DelayMax <= 0 {
		c.DelayMin = d.DelayMin
		c.DelayMax = d.DelayMax
	}
	if c.DelayMax < c.DelayMin {
		c.DelayMax = c.DelayMin
	}
	if c.ResetDelay <= 0 {
		c.ResetDelay = d.ResetDelay
	}
	if c.FaultPause <= 0 {
		c.FaultPause = d.FaultPause
	}
	if c.CheckpointName == "" {
		c.CheckpointName = d.CheckpointName
	}
	if c.CheckpointEvery <= 0 {
		c.CheckpointEvery = d.CheckpointEvery
	}
	return c
}

func (c Config) checkpointKey() string {
	return fmt.Sprintf("%s:%d-%d", c.CheckpointName, c.Start, c.End)
}
