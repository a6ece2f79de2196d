package assets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/annel0/chase-arena/internal/anim"
	"github.com/annel0/chase-arena/internal/logging"
)

// ErrUnknownAsset is returned for paths the manifest does not describe.
var ErrUnknownAsset = errors.New("unknown asset")

// Model is the part of a loaded model the simulation needs: the root node
// name and the animation clips.
type Model struct {
	Path  string      `yaml:"path"`
	Root  string      `yaml:"root"`
	Scale float64     `yaml:"scale"`
	Clips []anim.Clip `yaml:"clips"`
}

// Clip looks a clip up by name.
func (m *Model) Clip(name string) (anim.Clip, bool) {
	for _, c := range m.Clips {
		if c.Name == name {
			return c, true
		}
	}
	return anim.Clip{}, false
}

// FirstClip returns the first clip, if any.
func (m *Model) FirstClip() (anim.Clip, bool) {
	if len(m.Clips) == 0 {
		return anim.Clip{}, false
	}
	return m.Clips[0], true
}

// Texture describes an image asset.
type Texture struct {
	Path   string `yaml:"path"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// PlaceholderGoal is substituted when the goal model cannot be loaded.
func PlaceholderGoal() *Model {
	return &Model{
		Path:  "builtin:sphere",
		Root:  "GoalSphere",
		Scale: 0.5,
		Clips: []anim.Clip{{Name: "idle", Duration: 2 * time.Second}},
	}
}

// Loader is the asset collaborator consumed by sessions.
type Loader interface {
	LoadModel(ctx context.Context, path string) *Handle[*Model]
	LoadTexture(ctx context.Context, path string) *Handle[*Texture]
}

// Manifest lists every asset a ManifestLoader can serve.
type Manifest struct {
	// Latency delays every load, imitating a slow network fetch.
	Latency  time.Duration `yaml:"latency"`
	Models   []Model       `yaml:"models"`
	Textures []Texture     `yaml:"textures"`
}

// ParseManifest decodes a YAML manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse asset manifest: %w", err)
	}
	return &m, nil
}

// LoadManifest reads a manifest file from disk.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset manifest: %w", err)
	}
	return ParseManifest(data)
}

// ManifestLoader resolves handles from an in-memory manifest on background
// goroutines.
type ManifestLoader struct {
	latency  time.Duration
	models   map[string]Model
	textures map[string]Texture
	wg       sync.WaitGroup
}

// NewManifestLoader индексирует манифест по путям
func NewManifestLoader(m *Manifest) *ManifestLoader {
	l := &ManifestLoader{
		latency:  m.Latency,
		models:   make(map[string]Model, len(m.Models)),
		textures: make(map[string]Texture, len(m.Textures)),
	}
	for _, model := range m.Models {
		l.models[model.Path] = model
	}
	for _, tex := range m.Textures {
		l.textures[tex.Path] = tex
	}
	return l
}

// LoadModel starts loading path and returns its handle immediately.
func (l *ManifestLoader) LoadModel(ctx context.Context, path string) *Handle[*Model] {
	h := NewHandle[*Model]()
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.wait(ctx)

		model, ok := l.models[path]
		if !ok {
			logging.Warn("Модель не найдена в манифесте: %s", path)
			h.reject(fmt.Errorf("model %q: %w", path, ErrUnknownAsset))
			return
		}
		clips := make([]anim.Clip, len(model.Clips))
		copy(clips, model.Clips)
		model.Clips = clips
		h.resolve(&model)
	}()
	return h
}

// LoadTexture starts loading path and returns its handle immediately.
func (l *ManifestLoader) LoadTexture(ctx context.Context, path string) *Handle[*Texture] {
	h := NewHandle[*Texture]()
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.wait(ctx)

		tex, ok := l.textures[path]
		if !ok {
			h.reject(fmt.Errorf("texture %q: %w", path, ErrUnknownAsset))
			return
		}
		h.resolve(&tex)
	}()
	return h
}

// Wait blocks until every started load has resolved.
func (l *ManifestLoader) Wait() {
	l.wg.Wait()
}

// wait sleeps for the configured latency. A cancelled context only cuts
// the sleep short; loads are never aborted.
func (l *ManifestLoader) wait(ctx context.Context) {
	if l.latency <= 0 {
		return
	}
	t := time.NewTimer(l.latency)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
