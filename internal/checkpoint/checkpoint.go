// Package checkpoint tracks the model checkpoints the training program saves
// as model_<epoch>.tar every save_freq epochs.
package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"
)

var namePattern = regexp.MustCompile(`^model_(\d+)\.tar$`)

// Checkpoint is one saved model file.
type Checkpoint struct {
	Epoch   int
	Path    string
	Size    int64
	ModTime time.Time
}

// FileName returns the name the trainer uses for epoch.
func FileName(epoch int) string {
	return fmt.Sprintf("model_%d.tar", epoch)
}

// Parse extracts the epoch from a checkpoint file name.
func Parse(name string) (int, bool) {
	m := namePattern.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return 0, false
	}
	epoch, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return epoch, true
}

// Scan lists the checkpoints in dir, oldest epoch first.
func Scan(dir string) ([]Checkpoint, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint dir: %w", err)
	}

	var out []Checkpoint
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		epoch, ok := Parse(e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Checkpoint{
			Epoch:   epoch,
			Path:    filepath.Join(dir, e.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Epoch < out[j].Epoch })
	return out, nil
}

// Latest returns the checkpoint with the highest epoch in dir.
func Latest(dir string) (Checkpoint, bool, error) {
	all, err := Scan(dir)
	if err != nil || len(all) == 0 {
		return Checkpoint{}, false, err
	}
	return all[len(all)-1], true, nil
}
