// Package writer puts a generated bundle on disk.
//
// Always-overwrite artifacts are replaced atomically (temp file + rename),
// write-once artifacts are created exclusively and never touched again. Test
// and config artifacts go to the tests/ subdirectory.
package writer

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/blimu-dev/asyncapi-gen/internal/logger"
	"github.com/blimu-dev/asyncapi-gen/pkg/generrors"
	"github.com/blimu-dev/asyncapi-gen/pkg/ir"
)

// ReadableByAll is the file mode of generated files
const ReadableByAll os.FileMode = 0o644

const dirMode os.FileMode = 0o755

// Options configures one Write call
type Options struct {
	// Root is the output directory; it is created when missing
	Root string
	// License is prepended to .go artifacts when non-empty
	License string
	// Prompter is asked before an existing always-overwrite file is replaced.
	// A nil Prompter overwrites without asking.
	Prompter Prompter
	Logger   *zap.Logger
}

// Result lists what happened to every artifact. Paths are slash-separated
// and relative to the output root.
type Result struct {
	Written   []string
	Skipped   []string
	Unchanged []string
	// Renamed maps the planned path to the path actually written
	Renamed map[string]string
}

// Created returns the written paths in write order, renamed ones included
func (r Result) Created() []string {
	return append([]string(nil), r.Written...)
}

// Write puts the artifacts below opts.Root. On an I/O failure the files
// written so far stay on disk and a *generrors.PartialWriteError is returned.
func Write(artifacts []ir.Artifact, opts Options) (Result, error) {
	log := logger.Component(logger.OrNop(opts.Logger), "writer")
	res := Result{Renamed: map[string]string{}}

	if strings.TrimSpace(opts.Root) == "" {
		return res, &generrors.InputError{Kind: generrors.InputMissing, Message: "output directory is required"}
	}
	if err := os.MkdirAll(opts.Root, dirMode); err != nil {
		return res, &generrors.PartialWriteError{Failed: opts.Root, Cause: err}
	}

	existing, err := scan(opts.Root)
	if err != nil {
		return res, &generrors.PartialWriteError{Failed: opts.Root, Cause: err}
	}

	fail := func(rel string, cause error) (Result, error) {
		log.Error("write failed", zap.String(logger.FieldFile, rel), zap.Error(cause))
		return res, &generrors.PartialWriteError{Written: res.Created(), Failed: rel, Cause: cause}
	}

	for _, a := range artifacts {
		rel := a.Destination()
		content := a.Content
		if opts.License != "" && strings.HasSuffix(rel, ".go") {
			content = withLicense(opts.License, content)
		}
		if a.Relocated() {
			if err := os.MkdirAll(filepath.Join(opts.Root, ir.TestsDir), dirMode); err != nil {
				return fail(rel, err)
			}
		}

		if a.Policy == ir.WriteOnce {
			created, err := createExclusive(filepath.Join(opts.Root, filepath.FromSlash(rel)), content)
			if err != nil {
				return fail(rel, err)
			}
			if !created {
				log.Debug("kept existing file", zap.String(logger.FieldFile, rel))
				res.Skipped = append(res.Skipped, rel)
				continue
			}
			existing[rel] = true
			res.Written = append(res.Written, rel)
			continue
		}

		target := rel
		if existing[rel] {
			current, err := os.ReadFile(filepath.Join(opts.Root, filepath.FromSlash(rel)))
			if err == nil && bytes.Equal(current, content) {
				res.Unchanged = append(res.Unchanged, rel)
				continue
			}
			if opts.Prompter != nil {
				ok, err := opts.Prompter.Confirm(overwriteQuestion(rel))
				if err != nil {
					return fail(rel, errors.Wrap(err, "prompt"))
				}
				if !ok {
					target = nextFreeName(rel, existing)
					res.Renamed[rel] = target
				}
			}
		}
		if err := replaceAtomic(filepath.Join(opts.Root, filepath.FromSlash(target)), content); err != nil {
			return fail(target, err)
		}
		existing[target] = true
		res.Written = append(res.Written, target)
	}

	log.Debug("bundle written",
		zap.String(logger.FieldPath, opts.Root),
		zap.Int(logger.FieldCount, len(res.Written)),
		zap.Int("skipped", len(res.Skipped)),
		zap.Int("unchanged", len(res.Unchanged)))
	return res, nil
}

// scan lists the files already present in the root and in tests/
func scan(root string) (map[string]bool, error) {
	out := map[string]bool{}
	for _, dir := range []string{"", ir.TestsDir} {
		entries, err := os.ReadDir(filepath.Join(root, dir))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if dir == "" {
				out[e.Name()] = true
			} else {
				out[dir+"/"+e.Name()] = true
			}
		}
	}
	return out, nil
}

// createExclusive creates path only if it does not exist yet. The check and
// the creation are a single open call.
func createExclusive(path string, content []byte) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, ReadableByAll)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, err
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return true, err
	}
	return true, f.Close()
}

func replaceAtomic(path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmp.Name(), ReadableByAll); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		cleanup()
		return err
	}
	return nil
}

// nextFreeName returns "name-N.ext" for the first N from 1 that is not taken
func nextFreeName(rel string, taken map[string]bool) string {
	ext := filepath.Ext(rel)
	stem := strings.TrimSuffix(rel, ext)
	for n := 1; ; n++ {
		candidate := stem + "-" + strconv.Itoa(n) + ext
		if !taken[candidate] {
			return candidate
		}
	}
}

func overwriteQuestion(rel string) string {
	return "There is already a/an " + filepath.Base(rel) + " in the location. Do you want to override the file? [y/N] "
}

// withLicense prepends the license as a line comment block
func withLicense(license string, content []byte) []byte {
	var b bytes.Buffer
	for _, line := range strings.Split(strings.TrimRight(license, "\r\n"), "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case strings.HasPrefix(strings.TrimSpace(line), "//"):
			b.WriteString(line)
		case strings.TrimSpace(line) == "":
			b.WriteString("//")
		default:
			b.WriteString("// " + line)
		}
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.Write(content)
	return b.Bytes()
}
