package core

import (
	"sync"
	"testing"
)

func TestFingerprint_ContentAddressed(t *testing.T) {
	first, err := Fingerprint(serviceComposite())
	if err != nil {
		t.Fatalf("Fingerprint() error = %v", err)
	}
	second, err := Fingerprint(serviceComposite())
	if err != nil {
		t.Fatalf("Fingerprint() error = %v", err)
	}
	if first != second {
		t.Errorf("equal definitions hashed differently: %s vs %s", first, second)
	}

	changed := serviceComposite()
	changed.Attrs[1].Default = "safe"
	other, err := Fingerprint(changed)
	if err != nil {
		t.Fatalf("Fingerprint() error = %v", err)
	}
	if other == first {
		t.Error("changed default produced the same fingerprint")
	}
}

func TestRegistry_CompileOncePerContent(t *testing.T) {
	reg := NewRegistry()

	first, err := reg.Compile(serviceComposite())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	second, err := reg.Compile(serviceComposite())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if first != second {
		t.Error("distinct pointers with equal content did not share one model")
	}

	changed := serviceComposite()
	changed.Name = "Other"
	other, err := reg.Compile(changed)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if other == first {
		t.Error("different definitions shared one model")
	}
}

func TestRegistry_ConcurrentCompile(t *testing.T) {
	reg := NewRegistry()
	models := make([]*Model, 8)

	var wg sync.WaitGroup
	for i := range models {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			model, err := reg.Compile(serviceComposite())
			if err != nil {
				t.Errorf("Compile() error = %v", err)
				return
			}
			models[i] = model
		}(i)
	}
	wg.Wait()

	for i, model := range models {
		if model != models[0] {
			t.Fatalf("goroutine %d got a different model instance", i)
		}
	}
}

func TestRegistry_ErrorsNotCached(t *testing.T) {
	reg := NewRegistry()

	broken := serviceComposite()
	broken.Aliases = append(broken.Aliases, AliasEdge{
		From: ref("Service", "mode"),
		To:   ref("Web", "missing"),
	})

	if _, err := reg.Compile(broken); err == nil {
		t.Fatal("Compile() error = nil, want alias target error")
	}
	if _, err := reg.Compile(broken); err == nil {
		t.Fatal("Compile() error = nil on retry, want the same failure")
	}

	if _, err := reg.Compile(serviceComposite()); err != nil {
		t.Errorf("Compile() error = %v for valid definition after failures", err)
	}
}

func TestRegistry_NilComposite(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Compile(nil)
	if err == nil {
		t.Fatal("Compile(nil) error = nil, want error")
	}
	if !IsMalformedDirectiveErr(err) {
		t.Errorf("Compile(nil) error = %v, want malformed directive error", err)
	}
}
