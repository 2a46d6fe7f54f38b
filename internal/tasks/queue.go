package tasks

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"github.com/desertthunder/podx/internal/models"
)

// DefaultExtensions are the audio containers the library accepts.
var DefaultExtensions = []string{".mp3", ".m4a", ".aac", ".mp4", ".flac", ".wav"}

// UploadQueue is the ordered list of files waiting to be uploaded.
//
// Files with other extensions are dropped silently and a (name, size) pair is only queued once.
type UploadQueue struct {
	allowed map[string]bool
	files   []models.UploadFile
}

type queueKey struct {
	name string
	size int64
}

// NewUploadQueue creates a queue accepting extensions (with or without the dot, any case).
// An empty list means [DefaultExtensions].
func NewUploadQueue(extensions []string) *UploadQueue {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	allowed := lo.SliceToMap(extensions, func(ext string) (string, bool) {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		return ext, true
	})
	return &UploadQueue{allowed: allowed}
}

// Allowed reports whether name has an accepted extension.
func (q *UploadQueue) Allowed(name string) bool {
	return q.allowed[strings.ToLower(filepath.Ext(name))]
}

// Add enqueues files in order and returns how many were accepted.
func (q *UploadQueue) Add(files ...models.UploadFile) int {
	seen := lo.SliceToMap(q.files, func(f models.UploadFile) (queueKey, bool) {
		return queueKey{f.Name, f.Size}, true
	})

	added := 0
	for _, f := range files {
		if !q.Allowed(f.Name) {
			continue
		}
		key := queueKey{f.Name, f.Size}
		if seen[key] {
			continue
		}
		seen[key] = true
		q.files = append(q.files, f)
		added++
	}
	return added
}

// AddPaths stats each path (walking directories) and enqueues the regular files found.
func (q *UploadQueue) AddPaths(paths ...string) (int, error) {
	var found []models.UploadFile
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			return q.Add(found...), fmt.Errorf("cannot read %s: %w", p, err)
		}
		if !info.IsDir() {
			found = append(found, models.NewUploadFile(p, info.Size()))
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !d.Type().IsRegular() || !q.Allowed(d.Name()) {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			found = append(found, models.NewUploadFile(path, fi.Size()))
			return nil
		})
		if err != nil {
			return q.Add(found...), fmt.Errorf("cannot walk %s: %w", p, err)
		}
	}
	return q.Add(found...), nil
}

// Remove drops the file at index i.
func (q *UploadQueue) Remove(i int) bool {
	if i < 0 || i >= len(q.files) {
		return false
	}
	q.files = append(q.files[:i:i], q.files[i+1:]...)
	return true
}

// Files returns a copy of the queue.
func (q *UploadQueue) Files() []models.UploadFile {
	out := make([]models.UploadFile, len(q.files))
	copy(out, q.files)
	return out
}

// Len is the number of queued files.
func (q *UploadQueue) Len() int {
	return len(q.files)
}

// TotalSize sums queued file sizes.
func (q *UploadQueue) TotalSize() int64 {
	return lo.SumBy(q.files, func(f models.UploadFile) int64 { return f.Size })
}

// Reset empties the queue.
func (q *UploadQueue) Reset() {
	q.files = nil
}
