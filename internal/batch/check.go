package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strconv"
)

// DefaultAccepted are the file counts of a finished batch directory.
var DefaultAccepted = []int{41, 5}

var batchDir = regexp.MustCompile(`^B(\d+)$`)

// Incomplete is a batch output directory with an unexpected file count.
type Incomplete struct {
	Index int
	Dir   string
	Files int
}

// FindIncomplete inspects every B<index> directory directly under root and
// reports those whose file count is not in accepted.
func FindIncomplete(root string, accepted []int) ([]Incomplete, error) {
	if len(accepted) == 0 {
		accepted = DefaultAccepted
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", root, err)
	}

	var out []Incomplete
	for _, e := range entries {
		m := batchDir.FindStringSubmatch(e.Name())
		if !e.IsDir() || m == nil {
			continue
		}
		index, _ := strconv.Atoi(m[1])
		dir := filepath.Join(root, e.Name())

		n, err := countFiles(dir)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(accepted, n) {
			out = append(out, Incomplete{Index: index, Dir: dir, Files: n})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

func countFiles(dir string) (int, error) {
	n := 0
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count files in %s: %w", dir, err)
	}
	return n, nil
}

// Indices returns the batch indices of incomplete directories.
func Indices(incomplete []Incomplete) []int {
	out := make([]int, len(incomplete))
	for i, in := range incomplete {
		out[i] = in.Index
	}
	return out
}
