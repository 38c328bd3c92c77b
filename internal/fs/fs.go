package fs

import (
	"errors"
	"sort"
	"time"
)

type EntryKind uint8

const (
	DirEntry  EntryKind = 1
	FileEntry EntryKind = 2
)

type Entry struct {
	Kind    EntryKind
	Symlink string
}

type FS interface {
	// The returned map is immutable and is cached across invocations. Do not
	// mutate it. A missing directory returns nil.
	ReadDirectory(path string) map[string]Entry
	ReadFile(path string) (string, error)

	// This is a key made from the information returned by "stat". It is
	// intended to be different if the file has been edited, and to otherwise
	// be equal if the file has not been edited. The cache uses it to skip
	// reading files that haven't changed. It returns an error when the key is
	// unusable, in which case the caller must read the file.
	ModKey(path string) (ModKey, error)

	// This is part of the interface because the mock interface used for tests
	// should not depend on file system behavior (i.e. different slashes for
	// Windows) while the real interface should.
	Abs(path string) (string, bool)
	Dir(path string) string
	Base(path string) string
	Ext(path string) string
	Join(parts ...string) string
	Cwd() string
	Rel(base string, target string) (string, bool)
}

// Two stats of an unchanged file give equal keys. Which fields get filled in
// depends on the OS.
type ModKey struct {
	inode     uint64
	size      int64
	mtimeSec  int64
	mtimeNsec int64
	mode      uint32
	uid       uint32
}

// Some file systems have a time resolution of only a few seconds. If a file
// is written twice within that window, the second write won't change the
// modification time and the change goes unseen. Files that were changed that
// recently don't get a key.
const modKeySafetyGap = 3 // In seconds

var errModKeyUnusable = errors.New("The modification key is unusable")

// A zero modification time means the file system doesn't track it
func checkModTime(mtime time.Time) error {
	if mtime.IsZero() || (mtime.Unix() == 0 && mtime.Nanosecond() == 0) {
		return errModKeyUnusable
	}
	if mtime.Add(modKeySafetyGap * time.Second).After(time.Now()) {
		return errModKeyUnusable
	}
	return nil
}

// Returns the names of the files in a directory, sorted so that directory
// scans produce the same order on every run
func SortedFileNames(entries map[string]Entry) []string {
	names := make([]string, 0, len(entries))
	for name, entry := range entries {
		if entry.Kind == FileEntry {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
