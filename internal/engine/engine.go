package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/blockdoc/internal/blocks"
	"github.com/roach88/blockdoc/internal/config"
	"github.com/roach88/blockdoc/internal/ir"
	"github.com/roach88/blockdoc/internal/store"
)

// Engine is an edit session over one blocks document.
//
// Thread-safety model:
//   - Enqueue(), Apply(), Document(), Seq(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//
// INVARIANTS:
//   - The current form always satisfies the document invariants
//   - Seq equals the number of ops applied since revision 0
//   - With a store, the latest stored revision equals Document(); an op
//     whose seq another session already committed fails with
//     store.ErrSeqConflict and leaves the session unchanged
type Engine struct {
	store      *store.Store
	documentID string

	settings config.Settings
	registry *blocks.Registry
	baseIDs  blocks.IDGenerator
	ids      *recordingGenerator
	editor   *blocks.Editor

	clock    *seqClock
	queue    *opQueue
	logger   *slog.Logger
	observer func(Result, error)

	mu   sync.Mutex // guards form and hash; held for a whole op
	form blocks.Form
	hash string
}

// Result describes one applied op.
type Result struct {
	Seq  int64
	Kind OpKind

	// Args are the op's arguments as journaled, with position references
	// resolved and generated ids under "ids".
	Args ir.IRObject

	// NewID is the block inserted by add or split.
	NewID ir.BlockID

	// IDs lists every id the op generated, in draw order.
	IDs []ir.BlockID

	// Hash is the content hash of the resulting document.
	Hash string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRegistry sets the block type registry used for hasValue checks.
func WithRegistry(r *blocks.Registry) EngineOption {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithIDGenerator sets the block id source. Default: blocks.UUIDGenerator.
func WithIDGenerator(g blocks.IDGenerator) EngineOption {
	return func(e *Engine) {
		if g != nil {
			e.baseIDs = g
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver registers a callback invoked by Run after every op, with the
// op's result or error. It runs on the Run goroutine.
func WithObserver(fn func(Result, error)) EngineOption {
	return func(e *Engine) {
		e.observer = fn
	}
}

func newEngine(settings config.Settings, opts []EngineOption) *Engine {
	e := &Engine{
		settings: settings,
		baseIDs:  blocks.UUIDGenerator{},
		clock:    clockAt(0),
		queue:    newOpQueue(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.ids = newRecordingGenerator(e.baseIDs)
	e.editor = blocks.New(settings,
		blocks.WithRegistry(e.registry),
		blocks.WithIDGenerator(e.ids),
	)
	return e
}

// New starts an in-memory session. A nil doc starts from an empty
// document. Nothing is journaled.
func New(settings config.Settings, doc ir.IRObject, opts ...EngineOption) (*Engine, error) {
	e := newEngine(settings, opts)
	form, err := e.initialForm(doc)
	if err != nil {
		return nil, err
	}
	if err := e.reset(form); err != nil {
		return nil, err
	}
	return e, nil
}

// Create registers a new document in st with doc as revision 0 and starts
// a session on it. A nil doc starts from an empty document.
func Create(ctx context.Context, st *store.Store, documentID string, settings config.Settings, doc ir.IRObject, opts ...EngineOption) (*Engine, error) {
	e := newEngine(settings, opts)
	e.store = st
	e.documentID = documentID

	form, err := e.initialForm(doc)
	if err != nil {
		return nil, err
	}
	if _, err := st.CreateDocument(ctx, documentID, form.Names, e.editor.Encode(form)); err != nil {
		return nil, err
	}
	if err := e.reset(form); err != nil {
		return nil, err
	}

	e.logger.Info("document created", "document", documentID, "blocks", form.Len())
	return e, nil
}

// Open resumes a session on the latest revision of a stored document.
func Open(ctx context.Context, st *store.Store, documentID string, settings config.Settings, opts ...EngineOption) (*Engine, error) {
	e := newEngine(settings, opts)
	e.store = st
	e.documentID = documentID

	rev, err := st.ReadLatest(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("open document %q: %w", documentID, err)
	}
	form, err := e.decodeChecked(rev.Content)
	if err != nil {
		return nil, fmt.Errorf("open document %q: %w", documentID, err)
	}

	e.clock = clockAt(rev.Seq)
	e.form = form
	e.hash = rev.ContentHash

	e.logger.Info("document opened", "document", documentID, "seq", rev.Seq)
	return e, nil
}

// initialForm decodes doc, or builds an empty form when doc is nil, and
// rejects documents that break the invariants.
func (e *Engine) initialForm(doc ir.IRObject) (blocks.Form, error) {
	if doc == nil {
		form := e.editor.EmptyForm()
		e.ids.drain()
		return form, nil
	}

	return e.decodeChecked(doc)
}

// decodeChecked decodes doc and refuses forms that break the editing
// invariants. Non-fatal problems such as orphaned block data are kept.
func (e *Engine) decodeChecked(doc ir.IRObject) (blocks.Form, error) {
	form, err := e.editor.Decode(doc)
	if err != nil {
		return blocks.Form{}, fmt.Errorf("decode document: %w", err)
	}
	if errs := e.editor.Validate(form); blocks.HasFatal(errs) {
		i := slices.IndexFunc(errs, blocks.ValidationError.IsFatal)
		return blocks.Form{}, fmt.Errorf("invalid document: %w", errs[i])
	}
	return form, nil
}

func (e *Engine) reset(form blocks.Form) error {
	hash, err := ir.DocumentHash(e.editor.Encode(form))
	if err != nil {
		return err
	}
	e.form = form
	e.hash = hash
	return nil
}

// Enqueue submits an op for the Run loop.
// Thread-safe: may be called from any goroutine.
//
// Returns false if the engine has been stopped.
func (e *Engine) Enqueue(op Op) bool {
	return e.queue.Enqueue(op)
}

// Run applies queued ops until ctx is cancelled or Stop is called. Ops
// already queued when Stop is called are still applied.
//
// CRITICAL: Must be called from exactly ONE goroutine.
//
// A failing op is logged and skipped; the loop keeps going. Retrying would
// make the journal depend on timing.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine starting", "document", e.documentID, "seq", e.clock.Last())

	for {
		op, ok := e.queue.TryDequeue()
		if ok {
			res, err := e.Apply(ctx, op)
			if err != nil {
				e.logOpError(op, err)
			}
			if e.observer != nil {
				e.observer(res, err)
			}
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel is closed by Stop; once drained, return.
			if e.queue.Len() == 0 && e.stopped() {
				e.logger.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue. Run returns once the remaining ops are applied.
func (e *Engine) Stop() {
	e.queue.Close()
}

func (e *Engine) stopped() bool {
	e.queue.mu.Lock()
	defer e.queue.mu.Unlock()
	return e.queue.closed
}

// Apply applies one op synchronously and, with a store, journals the op and
// the resulting revision in one transaction. On error the document is
// unchanged and no seq is consumed.
func (e *Engine) Apply(ctx context.Context, op Op) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	seq := e.clock.Pending()
	e.ids.drain()

	out, resolved, newID, err := ApplyOp(e.editor, e.form, op)
	ids := e.ids.drain()
	if err != nil {
		return Result{}, &OpError{DocumentID: e.documentID, Seq: seq, Kind: op.Kind, Err: err}
	}

	doc := e.editor.Encode(out)
	hash, err := ir.DocumentHash(doc)
	if err != nil {
		return Result{}, &OpError{DocumentID: e.documentID, Seq: seq, Kind: op.Kind, Err: err}
	}

	args := resolved.Args()
	if len(ids) > 0 {
		arr := make(ir.IRArray, len(ids))
		for i, id := range ids {
			arr[i] = ir.IRString(id)
		}
		args[argIDs] = arr
	}

	if e.store != nil {
		if _, _, err := e.store.CommitEdit(ctx, e.documentID, seq, string(resolved.Kind), args, doc); err != nil {
			if errors.Is(err, store.ErrSeqConflict) {
				e.logger.Warn("document changed by another session; reopen it",
					"document", e.documentID, "seq", seq)
			}
			return Result{}, &OpError{DocumentID: e.documentID, Seq: seq, Kind: op.Kind, Err: err}
		}
	}

	e.form = out
	e.hash = hash
	e.clock.Advance()

	e.logger.Debug("op applied",
		"document", e.documentID,
		"seq", seq,
		"op", resolved.Kind,
		"blocks", out.Len(),
		"hash", hash,
	)

	return Result{Seq: seq, Kind: resolved.Kind, Args: args, NewID: newID, IDs: ids, Hash: hash}, nil
}

func (e *Engine) logOpError(op Op, err error) {
	e.logger.Error("op failed",
		"document", e.documentID,
		"op", op.Kind,
		"id", op.ID,
		"error", err,
	)
}

// Document returns the current document content.
func (e *Engine) Document() ir.IRObject {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.editor.Encode(e.form)
}

// Form returns the current form. Forms are values; callers may keep it.
func (e *Engine) Form() blocks.Form {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.form
}

// Hash returns the content hash of the current document.
func (e *Engine) Hash() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hash
}

// Seq returns the seq of the current revision.
func (e *Engine) Seq() int64 {
	return e.clock.Last()
}

// DocumentID returns the stored document's id, or "" for in-memory
// sessions.
func (e *Engine) DocumentID() string {
	return e.documentID
}

// Editor returns the editor the session applies ops with.
func (e *Engine) Editor() *blocks.Editor {
	return e.editor
}
