package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/blockdoc/internal/blocks"
	"github.com/roach88/blockdoc/internal/config"
	"github.com/roach88/blockdoc/internal/engine"
	"github.com/roach88/blockdoc/internal/ir"
	"github.com/roach88/blockdoc/internal/store"
)

// loadSettings reads the settings file named by --config, or returns the
// defaults. --types overrides the block types directory.
func loadSettings(opts *RootOptions, f *OutputFormatter) (config.Settings, error) {
	settings := config.Default()
	if opts.Config != "" {
		var err error
		settings, err = config.Load(opts.Config)
		if err != nil {
			return config.Settings{}, f.Fail(ExitCommandError, ErrCodeConfig, "failed to load settings", err)
		}
	}
	if opts.Types != "" {
		settings.BlockTypesDir = opts.Types
	}
	return settings, nil
}

// env is what every document command needs: settings and the block type
// registry they point at.
type env struct {
	settings config.Settings
	registry *blocks.Registry
	logger   *slog.Logger
}

// loadEnv loads settings and the block types they point at. Failures are
// reported through f.
func loadEnv(opts *RootOptions, f *OutputFormatter) (*env, error) {
	settings, err := loadSettings(opts, f)
	if err != nil {
		return nil, err
	}

	registry := blocks.NewRegistry()
	if settings.BlockTypesDir != "" {
		result, err := LoadBlockTypes(settings.BlockTypesDir)
		if err != nil {
			return nil, f.Fail(ExitCommandError, loadErrorCode(err), "failed to load block types", err)
		}
		registry, err = blocks.RegistryFromSpecs(result.Specs)
		if err != nil {
			return nil, f.Fail(ExitCommandError, ErrCodeGeneric, "failed to load block types", err)
		}
		f.VerboseLog("Loaded %d block type(s) from %s", len(result.Specs), settings.BlockTypesDir)
	}

	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(f.GetErrWriter(), &slog.HandlerOptions{Level: level}))

	return &env{settings: settings, registry: registry, logger: logger}, nil
}

func loadErrorCode(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	return ErrCodeGeneric
}

// editor returns an editor over the env's settings and registry.
func (e *env) editor() *blocks.Editor {
	return blocks.New(e.settings, blocks.WithRegistry(e.registry))
}

// engineOptions returns the options shared by every session the CLI starts.
func (e *env) engineOptions() []engine.EngineOption {
	return []engine.EngineOption{
		engine.WithRegistry(e.registry),
		engine.WithLogger(e.logger),
	}
}

// openStore opens the revision store at path, falling back to the
// settings' database.
func (e *env) openStore(path string, f *OutputFormatter) (*store.Store, error) {
	if path == "" {
		path = e.settings.Database
	}
	if path == "" {
		return nil, f.Fail(ExitCommandError, ErrCodeStore, "no database: pass --db or set database in the settings file", nil)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	f.VerboseLog("Opened store %s", path)
	return st, nil
}

// sourceFlags selects a document: a JSON file or a stored document.
type sourceFlags struct {
	Database string
	ID       string
}

func (s *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.Database, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&s.ID, "id", "", "stored document id")
}

// check enforces exactly one of a file argument and --id.
func (s *sourceFlags) check(args []string, f *OutputFormatter) error {
	switch {
	case len(args) == 0 && s.ID == "":
		return f.Fail(ExitCommandError, ErrCodeInvalidSource, "pass a document file or --id", nil)
	case len(args) > 0 && s.ID != "":
		return f.Fail(ExitCommandError, ErrCodeInvalidSource, "pass either a document file or --id, not both", nil)
	}
	return nil
}

// revisionFlags pick a stored revision by seq or by content hash.
type revisionFlags struct {
	Seq  int64
	Hash string
}

func (r *revisionFlags) register(cmd *cobra.Command, verb string) {
	cmd.Flags().Int64Var(&r.Seq, "seq", -1, fmt.Sprintf("revision to %s (default latest)", verb))
	cmd.Flags().StringVar(&r.Hash, "hash", "", fmt.Sprintf("content hash of the revision to %s", verb))
}

// readDocument loads the selected document. For stored documents rev picks
// a revision; with neither --seq nor --hash it is the latest.
func (e *env) readDocument(ctx context.Context, src *sourceFlags, args []string, rev revisionFlags, f *OutputFormatter) (ir.IRObject, error) {
	if err := src.check(args, f); err != nil {
		return nil, err
	}
	if len(args) > 0 {
		if rev.Seq >= 0 || rev.Hash != "" {
			return nil, f.Fail(ExitCommandError, ErrCodeInvalidSource, "--seq and --hash need --id", nil)
		}
		doc, err := readDocumentFile(args[0])
		if err != nil {
			return nil, f.Fail(ExitCommandError, ErrCodeDocument, "failed to read document", err)
		}
		return doc, nil
	}
	if rev.Seq >= 0 && rev.Hash != "" {
		return nil, f.Fail(ExitCommandError, ErrCodeInvalidSource, "pass either --seq or --hash, not both", nil)
	}

	st, err := e.openStore(src.Database, f)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	var found store.Revision
	switch {
	case rev.Hash != "":
		found, err = st.FindRevisionByHash(ctx, src.ID, rev.Hash)
	case rev.Seq >= 0:
		found, err = st.ReadRevision(ctx, src.ID, rev.Seq)
	default:
		found, err = st.ReadLatest(ctx, src.ID)
	}
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to read document %q", src.ID), err)
	}
	f.VerboseLog("Read %s at seq %d", src.ID, found.Seq)
	return found.Content, nil
}

// readDocumentFile reads a JSON document. "-" reads stdin.
func readDocumentFile(path string) (ir.IRObject, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return ir.ParseObject(data)
}

// encodeDocument renders a document as indented canonical JSON.
func encodeDocument(doc ir.IRObject) ([]byte, error) {
	canonical, err := ir.MarshalCanonical(doc)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, canonical, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// writeDocumentFile writes doc to path, or to w when path is empty.
func writeDocumentFile(path string, w io.Writer, doc ir.IRObject) error {
	data, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	if path == "" {
		_, err = w.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}
