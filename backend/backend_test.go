package backend

import (
	"errors"
	"slices"
	"testing"

	"github.com/oceanmap/vfield/gpucore"
)

// stubDevice satisfies Device without a GPU.
type stubDevice struct {
	gpucore.Context
	closed bool
}

func (d *stubDevice) Close() { d.closed = true }

func withRegistry(t *testing.T, reg map[string]Factory) {
	t.Helper()
	registryMu.Lock()
	saved := factories
	factories = reg
	registryMu.Unlock()
	t.Cleanup(func() {
		registryMu.Lock()
		factories = saved
		registryMu.Unlock()
	})
}

func TestRegistryRegisterAndOpen(t *testing.T) {
	withRegistry(t, map[string]Factory{})

	var got Config
	Register("stub", func(cfg Config) (Device, error) {
		got = cfg
		return &stubDevice{}, nil
	})
	if !IsRegistered("stub") {
		t.Fatal("stub should be registered")
	}

	dev, err := Open("stub", Config{CanvasWidth: 3, CanvasHeight: 4})
	if err != nil {
		t.Fatalf("Open(stub) error = %v", err)
	}
	if dev == nil {
		t.Fatal("Open(stub) returned nil device")
	}
	if got.CanvasWidth != 3 || got.CanvasHeight != 4 {
		t.Errorf("factory got %+v", got)
	}
}

func TestRegistryOpenUnregistered(t *testing.T) {
	withRegistry(t, map[string]Factory{})
	if _, err := Open("nonexistent", Config{}); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Open(nonexistent) error = %v, want ErrBackendNotAvailable", err)
	}
}

func TestRegistryAvailableSorted(t *testing.T) {
	withRegistry(t, map[string]Factory{})
	for _, name := range []string{"zeta", "alpha", "mid"} {
		Register(name, nil)
	}
	if got, want := Available(), []string{"alpha", "mid", "zeta"}; !slices.Equal(got, want) {
		t.Errorf("Available() = %v, want %v", got, want)
	}
}

func TestRegistryUnregister(t *testing.T) {
	withRegistry(t, map[string]Factory{})
	Register("test-backend", func(Config) (Device, error) { return &stubDevice{}, nil })
	Unregister("test-backend")
	if IsRegistered("test-backend") {
		t.Error("test-backend should be unregistered")
	}
}

func TestRegistryDefaultPriority(t *testing.T) {
	failing := func(Config) (Device, error) { return nil, errors.New("no driver") }
	ok := func(Config) (Device, error) { return &stubDevice{}, nil }

	tests := []struct {
		name    string
		reg     map[string]Factory
		want    string
		wantErr bool
	}{
		{"vulkan first", map[string]Factory{BackendVulkan: ok, BackendNoop: ok}, BackendVulkan, false},
		{"fallback to noop", map[string]Factory{BackendVulkan: failing, BackendNoop: ok}, BackendNoop, false},
		{"unlisted backend", map[string]Factory{BackendVulkan: failing, "custom": ok}, "custom", false},
		{"nothing opens", map[string]Factory{BackendVulkan: failing}, "", true},
		{"empty registry", map[string]Factory{}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withRegistry(t, tt.reg)
			dev, name, err := Default(Config{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Default() error = %v, wantErr %v", err, tt.wantErr)
			}
			if name != tt.want {
				t.Errorf("Default() backend = %q, want %q", name, tt.want)
			}
			if !tt.wantErr && dev == nil {
				t.Error("Default() returned nil device")
			}
		})
	}
}
