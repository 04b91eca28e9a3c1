package bundle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// IndexFile is the entry document every bundle must carry at its root.
const IndexFile = "index.html"

// File is one emitted file.
type File struct {
	Path   string `json:"path"` // slash separated, relative to OutDir
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

// Manifest lists what Emit wrote.
type Manifest struct {
	OutDir  string   `json:"out_dir"`
	Files   []File   `json:"files"`
	Skipped []string `json:"skipped,omitempty"`
}

// Bytes sums the size of every emitted file.
func (m Manifest) Bytes() int64 {
	var n int64
	for _, f := range m.Files {
		n += f.Size
	}
	return n
}

// Emit copies the built asset tree under srcDir into OutDir. OutDir is
// emptied first when EmptyOutDir is set, and source maps are left out when
// Sourcemap is off.
func (c Config) Emit(ctx context.Context, srcDir string) (Manifest, error) {
	if err := c.Validate(); err != nil {
		return Manifest{}, err
	}

	src, err := filepath.Abs(srcDir)
	if err != nil {
		return Manifest{}, fmt.Errorf("resolve source dir: %w", err)
	}
	out, err := filepath.Abs(c.OutDir)
	if err != nil {
		return Manifest{}, fmt.Errorf("resolve out dir: %w", err)
	}
	if src == out || within(out, src) {
		return Manifest{}, fmt.Errorf("%w: source %s must not be inside out_dir %s", ErrInvalid, src, out)
	}

	if _, err := os.Stat(filepath.Join(src, IndexFile)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Manifest{}, fmt.Errorf("%w: %s", ErrNoIndex, src)
		}
		return Manifest{}, fmt.Errorf("stat index: %w", err)
	}

	if c.EmptyOutDir {
		if err := emptyDir(out); err != nil {
			return Manifest{}, err
		}
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return Manifest{}, fmt.Errorf("create out dir: %w", err)
	}

	m := Manifest{OutDir: c.OutDir, Files: []File{}}
	err = filepath.WalkDir(src, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			// out_dir can sit inside the source tree; never copy it into itself.
			if p == out {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !c.Sourcemap && strings.HasSuffix(rel, ".map") {
			m.Skipped = append(m.Skipped, rel)
			return nil
		}
		f, err := copyFile(p, filepath.Join(out, filepath.FromSlash(rel)))
		if err != nil {
			return fmt.Errorf("copy %s: %w", rel, err)
		}
		f.Path = rel
		m.Files = append(m.Files, f)
		return nil
	})
	if err != nil {
		return Manifest{}, err
	}
	return m, nil
}

func copyFile(from, to string) (File, error) {
	in, err := os.Open(from)
	if err != nil {
		return File{}, err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return File{}, err
	}
	dst, err := os.Create(to)
	if err != nil {
		return File{}, err
	}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(dst, h), in)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return File{}, err
	}
	return File{Size: n, SHA256: hex.EncodeToString(h.Sum(nil))}, nil
}

// emptyDir removes the contents of dir but keeps dir itself. A missing dir
// is not an error.
func emptyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read out dir: %w", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("empty out dir: %w", err)
		}
	}
	return nil
}

// within reports whether p lies under dir.
func within(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
