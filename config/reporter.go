package config

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"go.uber.org/multierr"

	"fspider/misc"
)

// maxCopySize limits stylesheet snapshots kept in memory until report is
// written.
const maxCopySize = 4 << 20

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates empty report. When destination cannot be created report
// goes to temporary directory.
func (conf *ReporterConfig) Prepare() (*Report, error) {
	f, err := os.Create(conf.Destination)
	if err != nil {
		if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err != nil {
			return nil, fmt.Errorf("unable to create report: %w", err)
		}
	}
	return &Report{items: make(map[string]item), file: f}, nil
}

// item is either a reference to a file read on Close (log files which are
// still being written) or a snapshot taken when it was stored.
type item struct {
	origin string
	path   string
	stamp  time.Time
	data   []byte
}

func (it item) snapshot() bool {
	return it.data != nil
}

// Report accumulates everything necessary to troubleshoot a run: effective
// configuration, logs, entry stylesheets and record dumps. Methods are safe
// for concurrent use and do nothing on nil receiver.
type Report struct {
	mu    sync.Mutex
	items map[string]item
	file  *os.File
}

// Close writes the archive and closes it.
func (r *Report) Close() error {
	if r == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}
	err := multierr.Append(r.write(), r.file.Close())
	r.file = nil
	return err
}

// Name returns absolute name of the archive.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Store references file to be archived on Close. The same name may not be
// reused for a different file.
func (r *Report) Store(name, path string) {
	if r == nil {
		return
	}

	it := item{origin: path, path: path}
	if p, err := filepath.Abs(path); err == nil {
		it.path = p
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.items[name]; ok && old.origin != path {
		panic(fmt.Sprintf("report entry [%s] already refers to %s, cannot store %s", name, old.origin, path))
	}
	r.items[name] = it
}

// StoreData puts data into archive under name, repeated names get a
// timestamp suffix.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}
	if data == nil {
		data = []byte{}
	}
	r.add(name, item{data: bytes.Clone(data), stamp: time.Now()})
}

// StoreCopy takes snapshot of regular file as it is now. Names are versioned
// the same way StoreData does it.
func (r *Report) StoreCopy(name, path string) error {
	if r == nil {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("unable to copy %s into report: not a regular file", path)
	}
	if info.Size() > maxCopySize {
		return fmt.Errorf("unable to copy %s into report: file is too large (%d bytes)", path, info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}
	r.add(name, item{origin: path, path: path, data: data, stamp: info.ModTime()})
	return nil
}

func (r *Report) add(name string, it item) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[name]; ok {
		name = fmt.Sprintf("%s-%d", name, time.Now().UnixNano())
	}
	r.items[name] = it
}

// write must be called with mutex held.
func (r *Report) write() error {
	arc := zip.NewWriter(r.file)

	names := slices.Sorted(maps.Keys(r.items))
	err := addToArchive(arc, "MANIFEST", time.Now(), bytes.NewReader(manifest(names, r.items)))

	for _, name := range names {
		if err != nil {
			break
		}
		it := r.items[name]
		if it.snapshot() {
			err = addToArchive(arc, name, it.stamp, bytes.NewReader(it.data))
			continue
		}
		// files which never were created are skipped
		f, er := os.Open(it.path)
		if er != nil {
			continue
		}
		mod := time.Now()
		if info, er := f.Stat(); er == nil {
			mod = info.ModTime()
		}
		err = addToArchive(arc, name, mod, f)
		f.Close()
	}
	return multierr.Append(err, arc.Close())
}

func manifest(names []string, items map[string]item) []byte {
	var buf bytes.Buffer
	now := time.Now()
	for _, name := range names {
		it := items[name]
		stamp := it.stamp
		if stamp.IsZero() {
			stamp = now
		}
		origin := it.origin
		if len(origin) == 0 {
			origin = "-"
		}
		fmt.Fprintf(&buf, "%s\t%s\t%s\n", stamp.UTC().Format(time.RFC3339), name, origin)
	}
	return buf.Bytes()
}

func addToArchive(arc *zip.Writer, name string, mod time.Time, src io.Reader) error {
	w, err := arc.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: mod})
	if err != nil {
		return fmt.Errorf("unable to add %s to report: %w", name, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("unable to add %s to report: %w", name, err)
	}
	return nil
}
