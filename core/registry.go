package core

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vmihailenco/msgpack/v5"
)

// Registry caches compiled models by definition fingerprint. Lookups are
// lock-free; a miss compiles under a per-fingerprint lock, so concurrent
// callers compile any given definition at most once and unrelated
// definitions never block each other.
type Registry struct {
	models sync.Map // fingerprint -> *Model
	locks  sync.Map // fingerprint -> *fpLock
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Compile returns the cached model for the composite, compiling it on first
// use. Definitions with identical content share one cache entry regardless
// of pointer identity. Compile errors are not cached.
func (r *Registry) Compile(composite *Composite) (*Model, error) {
	if composite == nil {
		return Compile(composite)
	}
	fp, err := Fingerprint(composite)
	if err != nil {
		return nil, err
	}
	if cached, ok := r.models.Load(fp); ok {
		return cached.(*Model), nil
	}
	unlock := r.lockFingerprint(fp)
	defer unlock()
	if cached, ok := r.models.Load(fp); ok {
		return cached.(*Model), nil
	}
	model, err := Compile(composite)
	if err != nil {
		return nil, err
	}
	r.models.Store(fp, model)
	logDebugf("registry: compiled '%s' (%s)", composite.Name, fp[:12])
	return model, nil
}

type fpLock struct {
	mu  sync.Mutex
	ref int32
}

// lockFingerprint serializes compilation of one fingerprint. The returned
// function releases the lock and drops it once the last holder is gone.
func (r *Registry) lockFingerprint(fp string) func() {
	iface, _ := r.locks.LoadOrStore(fp, &fpLock{})
	l := iface.(*fpLock)
	atomic.AddInt32(&l.ref, 1)
	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		if atomic.AddInt32(&l.ref, -1) == 0 {
			r.locks.Delete(fp)
		}
	}
}

// Fingerprint returns a stable hex digest identifying the composite's
// content: its attribute tables and alias edges. Maps are encoded with
// sorted keys, so two definitions with the same content always hash the
// same.
func Fingerprint(composite *Composite) (string, error) {
	if composite == nil {
		return "", fmt.Errorf("nil composite")
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(fingerprintDoc(composite)); err != nil {
		return "", fmt.Errorf("failed to encode definition of '%s': %w", composite.Name, err)
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}

func fingerprintDoc(composite *Composite) map[string]any {
	units := make(map[string]any, len(composite.Members)+1)
	units[composite.Name] = attrDocs(composite.Attrs)
	for _, member := range composite.Members {
		if member == nil {
			continue
		}
		units[member.Name] = attrDocs(member.Attrs)
	}
	aliases := make([]map[string]string, 0, len(composite.Aliases))
	for _, e := range composite.Aliases {
		aliases = append(aliases, map[string]string{"from": e.From.String(), "to": e.To.String()})
	}
	return map[string]any{
		"name":    composite.Name,
		"units":   units,
		"aliases": aliases,
	}
}

func attrDocs(attrs []Attribute) []map[string]any {
	docs := make([]map[string]any, 0, len(attrs))
	for _, a := range attrs {
		doc := map[string]any{
			"name":    a.Name,
			"kind":    a.Kind.String(),
			"default": fmt.Sprintf("%v", a.Default),
		}
		if len(a.Enum) > 0 {
			doc["enum"] = a.Enum
		}
		if a.Sentinel != nil {
			doc["sentinel"] = a.Sentinel.Qualified()
		}
		docs = append(docs, doc)
	}
	return docs
}
