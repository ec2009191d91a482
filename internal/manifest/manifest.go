// Package manifest records what a build read and wrote, with blake3 hashes
// of every artifact so unchanged inputs can be detected on the next run.
package manifest

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/zeebo/blake3"

	"git.home.luguber.info/inful/texbuilder/internal/foundation/errors"
)

// FileName is the manifest file written next to the outputs.
const FileName = "manifest.json"

// BuildManifest represents a complete record of a build's inputs, plan, and outputs.
type BuildManifest struct {
	ID          string              `json:"id"`
	DocumentID  string              `json:"document_id"`
	Version     string              `json:"texbuilder_version"`
	Timestamp   time.Time           `json:"timestamp"`
	Inputs      Inputs              `json:"inputs"`
	Plan        Plan                `json:"plan"`
	Outputs     Outputs             `json:"outputs"`
	Diagnostics map[string]int      `json:"diagnostics,omitempty"`
	Status      string              `json:"status"`
	Duration    int64               `json:"duration_ms"`
}

// Inputs captures all inputs to the build.
type Inputs struct {
	Workbook     string `json:"workbook"`
	WorkbookHash string `json:"workbook_hash,omitempty"`
	// RecordsHash fingerprints the selected document's records plus the plan.
	RecordsHash string `json:"records_hash"`
}

// Plan captures how the records were compiled.
type Plan struct {
	Formats     []string `json:"formats"`
	FigureWidth string   `json:"figure_width,omitempty"`
	AutoPlace   bool     `json:"auto_place,omitempty"`
}

// Artifact is one written output file.
type Artifact struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	BLAKE3 string `json:"blake3"`
}

// Outputs captures all outputs from the build.
type Outputs struct {
	Directory string     `json:"directory"`
	Artifacts []Artifact `json:"artifacts"`
	Archive   *Artifact  `json:"archive,omitempty"`
}

// HashBytes returns the hex blake3-256 digest of data.
func HashBytes(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashFile streams path through blake3. A directory is hashed as the sorted
// list of its regular files' relative paths and digests.
func HashFile(path string) (string, int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", 0, errors.WrapError(err, errors.CategoryFileSystem, "stat file for hashing").WithContext("path", path).Build()
	}
	if info.IsDir() {
		return hashDir(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", 0, errors.WrapError(err, errors.CategoryFileSystem, "open file for hashing").WithContext("path", path).Build()
	}
	defer f.Close()

	h := blake3.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, errors.WrapError(err, errors.CategoryFileSystem, "hash file").WithContext("path", path).Build()
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

func hashDir(dir string) (string, int64, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return "", 0, errors.WrapError(err, errors.CategoryFileSystem, "walk directory for hashing").WithContext("path", dir).Build()
	}
	sort.Strings(files)

	h := blake3.New()
	var total int64
	for _, p := range files {
		sum, n, err := HashFile(p)
		if err != nil {
			return "", 0, err
		}
		rel, _ := filepath.Rel(dir, p)
		_, _ = io.WriteString(h, filepath.ToSlash(rel)+"\x00"+sum+"\n")
		total += n
	}
	return hex.EncodeToString(h.Sum(nil)), total, nil
}

// Fingerprint hashes the JSON encoding of v. Map keys are encoded sorted,
// so equal values always give equal fingerprints.
func Fingerprint(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryInternal, "encode fingerprint input").Build()
	}
	return HashBytes(data), nil
}

// AddArtifact hashes the file at dir/rel and records it.
func (m *BuildManifest) AddArtifact(dir, rel string) (Artifact, error) {
	sum, size, err := HashFile(filepath.Join(dir, rel))
	if err != nil {
		return Artifact{}, err
	}
	a := Artifact{Path: filepath.ToSlash(rel), Size: size, BLAKE3: sum}
	m.Outputs.Artifacts = append(m.Outputs.Artifacts, a)
	return a, nil
}

// Artifact returns the recorded artifact for rel.
func (m *BuildManifest) Artifact(rel string) (Artifact, bool) {
	for _, a := range m.Outputs.Artifacts {
		if a.Path == filepath.ToSlash(rel) {
			return a, true
		}
	}
	return Artifact{}, false
}

// Verify re-hashes every recorded artifact under dir and returns the paths
// that are missing or changed.
func (m *BuildManifest) Verify(dir string) []string {
	var changed []string
	for _, a := range m.Outputs.Artifacts {
		sum, _, err := HashFile(filepath.Join(dir, filepath.FromSlash(a.Path)))
		if err != nil || sum != a.BLAKE3 {
			changed = append(changed, a.Path)
		}
	}
	return changed
}

// ToJSON serializes the manifest to JSON.
func (m *BuildManifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "marshal manifest").Build()
	}
	return data, nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*BuildManifest, error) {
	var m BuildManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.WrapError(err, errors.CategoryInput, "unmarshal manifest").Build()
	}
	return &m, nil
}

// Write stores the manifest as dir/manifest.json.
func (m *BuildManifest) Write(dir string) error {
	data, err := m.ToJSON()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write manifest").WithContext("path", path).Build()
	}
	return nil
}

// Read loads dir/manifest.json. A missing manifest yields (nil, nil).
func Read(dir string) (*BuildManifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "read manifest").WithContext("path", path).Build()
	}
	return FromJSON(data)
}
