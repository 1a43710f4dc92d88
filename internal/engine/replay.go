package engine

import (
	"context"
	"fmt"

	"github.com/roach88/blockdoc/internal/blocks"
	"github.com/roach88/blockdoc/internal/config"
	"github.com/roach88/blockdoc/internal/ir"
	"github.com/roach88/blockdoc/internal/store"
)

// replayer re-applies journaled ops, feeding each op the ids it drew when
// it was first applied.
type replayer struct {
	editor *blocks.Editor
	gen    *replayGenerator
	form   blocks.Form
	seq    int64
}

func newReplayer(settings config.Settings, registry *blocks.Registry, base ir.IRObject, baseSeq int64) (*replayer, error) {
	gen := &replayGenerator{}
	ed := blocks.New(settings, blocks.WithRegistry(registry), blocks.WithIDGenerator(gen))
	form, err := ed.Decode(base)
	if err != nil {
		return nil, fmt.Errorf("decode base revision: %w", err)
	}
	return &replayer{editor: ed, gen: gen, form: form, seq: baseSeq}, nil
}

func (r *replayer) step(rec store.OpRecord) error {
	if rec.Seq != r.seq+1 {
		return &ReplayError{Seq: rec.Seq, Message: fmt.Sprintf("journal gap: expected seq %d", r.seq+1)}
	}

	op, ids, err := OpFromArgs(rec.Kind, rec.Args)
	if err != nil {
		return &ReplayError{Seq: rec.Seq, Message: err.Error()}
	}

	r.gen.load(ids)
	out, _, _, err := ApplyOp(r.editor, r.form, op)
	switch {
	case err != nil:
		return &ReplayError{Seq: rec.Seq, Message: err.Error()}
	case r.gen.overrun:
		return &ReplayError{Seq: rec.Seq, Message: fmt.Sprintf("op drew more than the %d journaled ids", len(ids))}
	case len(r.gen.ids) > 0:
		return &ReplayError{Seq: rec.Seq, Message: fmt.Sprintf("op left %d journaled ids unused", len(r.gen.ids))}
	}

	r.form = out
	r.seq = rec.Seq
	return nil
}

func (r *replayer) document() ir.IRObject {
	return r.editor.Encode(r.form)
}

// Replay re-applies ops to base, the document at seq 0, and returns the
// resulting document. ops must be the journal in seq order starting at 1.
func Replay(settings config.Settings, registry *blocks.Registry, base ir.IRObject, ops []store.OpRecord) (ir.IRObject, error) {
	r, err := newReplayer(settings, registry, base, 0)
	if err != nil {
		return nil, err
	}
	for _, rec := range ops {
		if err := r.step(rec); err != nil {
			return nil, err
		}
	}
	return r.document(), nil
}

// ReplayReport compares a replayed journal against stored revisions.
type ReplayReport struct {
	DocumentID string `json:"document_id"`
	Ops        int    `json:"ops"`
	FinalSeq   int64  `json:"final_seq"`
	StoredHash string `json:"stored_hash"`
	ReplayHash string `json:"replay_hash"`
	Match      bool   `json:"match"`

	// DivergedAt is the first seq whose replayed content differs from the
	// stored revision. Zero when Match is true.
	DivergedAt int64 `json:"diverged_at,omitempty"`

	// Problem explains a journal that could not be replayed at DivergedAt.
	Problem string `json:"problem,omitempty"`
}

// VerifyHistory replays a stored document's journal from revision 0 and
// checks every intermediate revision against the store.
//
// A content mismatch is reported through the returned report. Errors are
// reserved for storage failures and journals that cannot be applied; for
// the latter the error is a ReplayError and the report is filled up to
// the failing op.
func VerifyHistory(ctx context.Context, st *store.Store, documentID string, settings config.Settings, registry *blocks.Registry) (ReplayReport, error) {
	report := ReplayReport{DocumentID: documentID}

	revisions, err := st.ListRevisions(ctx, documentID)
	if err != nil {
		return report, err
	}
	if len(revisions) == 0 {
		return report, fmt.Errorf("document %q has no revisions", documentID)
	}
	ops, err := st.ReadOps(ctx, documentID, 0)
	if err != nil {
		return report, err
	}
	report.Ops = len(ops)

	stored := make(map[int64]string, len(revisions))
	for _, rev := range revisions {
		stored[rev.Seq] = rev.ContentHash
	}

	base := revisions[0]
	r, err := newReplayer(settings, registry, base.Content, base.Seq)
	if err != nil {
		return report, err
	}

	var replayHash string
	for _, rec := range ops {
		if err := r.step(rec); err != nil {
			report.FinalSeq = r.seq
			report.DivergedAt = rec.Seq
			return report, err
		}
		replayHash, err = ir.DocumentHash(r.document())
		if err != nil {
			return report, err
		}
		if want, ok := stored[rec.Seq]; !ok || want != replayHash {
			if report.DivergedAt == 0 {
				report.DivergedAt = rec.Seq
			}
		}
	}

	latest := revisions[len(revisions)-1]
	if replayHash == "" {
		replayHash, err = ir.DocumentHash(r.document())
		if err != nil {
			return report, err
		}
	}

	report.FinalSeq = r.seq
	report.StoredHash = latest.ContentHash
	report.ReplayHash = replayHash
	report.Match = report.DivergedAt == 0 && latest.Seq == r.seq && latest.ContentHash == replayHash
	if !report.Match && report.DivergedAt == 0 {
		report.DivergedAt = latest.Seq
	}
	return report, nil
}
