package cache

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// This is the on-disk form of a bound symbol table. Watch mode rewrites it
// after every rebuild, and other tools can read it without parsing anything.
// There is no way to get an AST back from it.

// Increment this when the layout of Dump changes
const dumpSchemaVersion uint16 = 1

var ErrDumpSchema = errors.New("symbol dump was written by an incompatible version")

type Dump struct {
	Schema uint16     `msgpack:"schema" json:"-"`
	Files  []FileDump `msgpack:"files" json:"files"`
}

type FileDump struct {
	Path    string        `msgpack:"path" json:"path"`
	Symbols []SymbolEntry `msgpack:"symbols,omitempty" json:"symbols,omitempty"`
	Scope   *ScopeEntry   `msgpack:"scope,omitempty" json:"scope,omitempty"`
}

type SymbolEntry struct {
	Ref  string `msgpack:"ref" json:"ref"`
	Name string `msgpack:"name" json:"name"`
	Kind string `msgpack:"kind" json:"kind"`

	// The name the renamer picked. This is empty if it's the original name.
	Renamed string `msgpack:"renamed,omitempty" json:"renamed,omitempty"`

	// The canonical symbol if this one was merged into another
	Link string `msgpack:"link,omitempty" json:"link,omitempty"`

	UseCount         uint32 `msgpack:"uses" json:"uses"`
	MustNotBeRenamed bool   `msgpack:"pinned,omitempty" json:"pinned,omitempty"`

	// Written as "ref.alias" for imports that go through a namespace object
	NamespaceAlias string `msgpack:"alias,omitempty" json:"alias,omitempty"`
}

type ScopeEntry struct {
	Kind               string       `msgpack:"kind" json:"kind"`
	Members            []string     `msgpack:"members,omitempty" json:"members,omitempty"`
	ContainsDirectEval bool         `msgpack:"eval,omitempty" json:"eval,omitempty"`
	Children           []ScopeEntry `msgpack:"children,omitempty" json:"children,omitempty"`
}

func NewDump(files []FileDump) *Dump {
	return &Dump{Schema: dumpSchemaVersion, Files: files}
}

func EncodeDump(w io.Writer, dump *Dump) error {
	if err := msgpack.NewEncoder(w).Encode(dump); err != nil {
		return fmt.Errorf("encode symbol dump: %w", err)
	}
	return nil
}

func DecodeDump(r io.Reader) (*Dump, error) {
	dump := &Dump{}
	if err := msgpack.NewDecoder(r).Decode(dump); err != nil {
		return nil, fmt.Errorf("decode symbol dump: %w", err)
	}
	if dump.Schema != dumpSchemaVersion {
		return nil, ErrDumpSchema
	}
	return dump, nil
}

// The dump is written next to its final location and then renamed into
// place, so a reader never sees a partially-written file
func WriteDumpFile(path string, dump *Dump) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dump directory: %w", err)
	}
	f, err := os.CreateTemp(dir, ".esbind-*")
	if err != nil {
		return fmt.Errorf("create temporary dump file: %w", err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	if err = EncodeDump(f, dump); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close temporary dump file: %w", err)
	}
	if err = os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("replace symbol dump: %w", err)
	}
	return nil
}

func ReadDumpFile(path string) (*Dump, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open symbol dump: %w", err)
	}
	defer f.Close()
	return DecodeDump(f)
}
