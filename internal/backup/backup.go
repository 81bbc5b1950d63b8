package backup

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	filePrefix = "oakwood-backup-"
	fileSuffix = ".tar.gz"
	timeLayout = "2006-01-02-150405"

	// Archive member name for the database, independent of the on-disk
	// filename so restores work across renamed databases.
	dbMemberName = "oakwood.db"
)

// Info describes one backup archive.
type Info struct {
	Path      string
	Filename  string
	SizeBytes int64
	Created   time.Time
}

// Dir returns the backups directory next to the database file, creating it
// if needed.
func Dir(dbPath string) (string, error) {
	dir := filepath.Join(filepath.Dir(dbPath), "backups")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backups directory: %w", err)
	}
	return dir, nil
}

// List returns existing backups sorted newest first. Files whose names do
// not carry a parseable timestamp are ignored.
func List(dbPath string) ([]Info, error) {
	dir, err := Dir(dbPath)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read backups directory: %w", err)
	}

	var backups []Info
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
		created, err := time.Parse(timeLayout, stamp)
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Info{
			Path:      filepath.Join(dir, name),
			Filename:  name,
			SizeBytes: info.Size(),
			Created:   created,
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Created.After(backups[j].Created)
	})
	return backups, nil
}

// Create writes a timestamped tar.gz archive of the database (and the covers
// directory when given) into the backups directory.
func Create(dbPath, coversDir string) (Info, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return Info{}, fmt.Errorf("stat database: %w", err)
	}

	dir, err := Dir(dbPath)
	if err != nil {
		return Info{}, err
	}

	created := time.Now()
	filename := filePrefix + created.Format(timeLayout) + fileSuffix
	target := filepath.Join(dir, filename)

	file, err := os.Create(target)
	if err != nil {
		return Info{}, fmt.Errorf("create archive: %w", err)
	}
	defer file.Close()

	gz := gzip.NewWriter(file)
	tw := tar.NewWriter(gz)

	if err := addFile(tw, dbPath, dbMemberName); err != nil {
		_ = tw.Close()
		_ = gz.Close()
		_ = os.Remove(target)
		return Info{}, err
	}
	if coversDir != "" {
		if err := addDir(tw, coversDir, "covers"); err != nil {
			_ = tw.Close()
			_ = gz.Close()
			_ = os.Remove(target)
			return Info{}, err
		}
	}

	if err := tw.Close(); err != nil {
		return Info{}, fmt.Errorf("finish tar: %w", err)
	}
	if err := gz.Close(); err != nil {
		return Info{}, fmt.Errorf("finish gzip: %w", err)
	}

	stat, err := os.Stat(target)
	if err != nil {
		return Info{}, fmt.Errorf("stat archive: %w", err)
	}
	return Info{Path: target, Filename: filename, SizeBytes: stat.Size(), Created: created}, nil
}

// Restore extracts the database from an archive over dbPath. The current
// database, when present, is first copied aside with a .pre-restore suffix.
func Restore(archivePath, dbPath string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("read gzip: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("archive has no %s member", dbMemberName)
		}
		if err != nil {
			return fmt.Errorf("read archive: %w", err)
		}
		if filepath.Clean(header.Name) != dbMemberName {
			continue
		}

		if _, err := os.Stat(dbPath); err == nil {
			if err := copyFile(dbPath, dbPath+".pre-restore"); err != nil {
				return fmt.Errorf("preserve current database: %w", err)
			}
		}

		out, err := os.Create(dbPath)
		if err != nil {
			return fmt.Errorf("create database file: %w", err)
		}
		if _, err := io.Copy(out, tr); err != nil {
			_ = out.Close()
			return fmt.Errorf("extract database: %w", err)
		}
		return out.Close()
	}
}

func addFile(tw *tar.Writer, path, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("tar header for %s: %w", path, err)
	}
	header.Name = name
	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("write header for %s: %w", name, err)
	}
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	if _, err := io.Copy(tw, file); err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}
	return nil
}

func addDir(tw *tar.Writer, dir, prefix string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		return addFile(tw, path, filepath.ToSlash(filepath.Join(prefix, rel)))
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
