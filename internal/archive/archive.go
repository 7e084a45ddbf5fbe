// Package archive bundles tracked files into a single gzip-compressed tar
// stream and extracts such streams back under a destination root. Entry
// names are home-relative slash paths, so an archive packed on one machine
// unpacks to the same layout on another.
package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/secretsync/internal/common"
)

// OS-generated sidecar files are noise on another machine and are never
// packed, even inside tracked directories.
var sidecarNames = map[string]struct{}{
	".DS_Store":   {},
	"Thumbs.db":   {},
	"desktop.ini": {},
}

// Pack resolves each home-relative path against root, expands directories
// recursively and serializes everything into one tar.gz blob. Returns the
// blob and the number of files packed.
//
// Packing fails closed: every tracked path must exist, a degraded partial
// archive is never produced.
func Pack(root string, paths []string) ([]byte, int, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	count := 0
	for _, rel := range paths {
		abs := filepath.Join(root, filepath.FromSlash(rel))

		info, err := os.Stat(abs)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %s", common.ErrPathNotFound, rel)
		}

		if info.IsDir() {
			err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.IsDir() {
					return nil
				}
				if _, skip := sidecarNames[d.Name()]; skip {
					return nil
				}
				sub, err := filepath.Rel(root, p)
				if err != nil {
					return err
				}
				if err := addFile(tw, p, filepath.ToSlash(sub)); err != nil {
					return err
				}
				count++
				return nil
			})
			if err != nil {
				return nil, 0, err
			}
			continue
		}

		if _, skip := sidecarNames[filepath.Base(abs)]; skip {
			continue
		}
		if err := addFile(tw, abs, rel); err != nil {
			return nil, 0, err
		}
		count++
	}

	if err := tw.Close(); err != nil {
		return nil, 0, err
	}
	if err := gz.Close(); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), count, nil
}

func addFile(tw *tar.Writer, abs, name string) error {
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("stat %s: %w", name, err)
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	f, err := os.Open(abs)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("pack %s: %w", name, err)
	}
	return nil
}

// Unpack extracts blob under root, recreating subdirectories and file
// modes. Existing files are overwritten without prompting: last pull wins.
// Entry names escaping root are rejected.
func Unpack(blob []byte, root string) error {
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read archive: %w", err)
		}

		name := filepath.FromSlash(hdr.Name)
		if filepath.IsAbs(name) || strings.HasPrefix(name, ".."+string(filepath.Separator)) || name == ".." {
			return fmt.Errorf("archive entry %s escapes destination", hdr.Name)
		}
		dest := filepath.Join(root, name)
		if rel, err := filepath.Rel(root, dest); err != nil || strings.HasPrefix(rel, "..") {
			return fmt.Errorf("archive entry %s escapes destination", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, fs.FileMode(hdr.Mode)&0o777); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return err
			}
			if err := writeFile(dest, tr, fs.FileMode(hdr.Mode)&0o777); err != nil {
				return fmt.Errorf("unpack %s: %w", hdr.Name, err)
			}
		default:
			// Symlinks and specials are not produced by Pack; skip
			// anything unexpected instead of failing the pull.
		}
	}
}

func writeFile(dest string, r io.Reader, mode fs.FileMode) error {
	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	// Override umask so restored secrets keep their packed permissions.
	if err := f.Chmod(mode); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
