// Package archive bundles build outputs into a .tar.xz file.
package archive

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ulikunitz/xz"

	"git.home.luguber.info/inful/texbuilder/internal/foundation/errors"
)

// Extension is appended to bundle names.
const Extension = ".tar.xz"

// Pack writes files (paths relative to dir) into a tar.xz archive at dest.
// Entries are sorted and stamped with modTime so equal inputs give equal
// archives.
func Pack(dest, dir string, files []string, modTime time.Time) error {
	out, err := os.Create(dest)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create archive").WithContext("path", dest).Build()
	}

	if err := pack(out, dir, files, modTime); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return err
	}
	if err := out.Close(); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "close archive").WithContext("path", dest).Build()
	}
	return nil
}

func pack(w io.Writer, dir string, files []string, modTime time.Time) error {
	xw, err := xz.NewWriter(w)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "create xz writer").Build()
	}
	tw := tar.NewWriter(xw)

	sorted := append([]string(nil), files...)
	sort.Strings(sorted)
	for _, rel := range sorted {
		if err := addFile(tw, dir, rel, modTime); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "finish tar stream").Build()
	}
	if err := xw.Close(); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "finish xz stream").Build()
	}
	return nil
}

func addFile(tw *tar.Writer, dir, rel string, modTime time.Time) error {
	path := filepath.Join(dir, rel)
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "read file for archive").WithContext("path", path).Build()
	}
	header := &tar.Header{
		Name:    filepath.ToSlash(rel),
		Mode:    0o644,
		Size:    int64(len(data)),
		ModTime: modTime,
		Format:  tar.FormatPAX,
	}
	if err := tw.WriteHeader(header); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write tar header").WithContext("path", rel).Build()
	}
	if _, err := tw.Write(data); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write tar entry").WithContext("path", rel).Build()
	}
	return nil
}

// List returns the entry names and contents of a tar.xz archive.
func List(path string) (map[string][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "open archive").WithContext("path", path).Build()
	}
	defer f.Close()

	xr, err := xz.NewReader(f)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInput, "read xz stream").WithContext("path", path).Build()
	}
	tr := tar.NewReader(xr)

	out := make(map[string][]byte)
	for {
		h, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryInput, "read tar entry").WithContext("path", path).Build()
		}
		if h.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryInput, "read tar entry").WithContext("entry", h.Name).Build()
		}
		out[h.Name] = data
	}
	return out, nil
}
