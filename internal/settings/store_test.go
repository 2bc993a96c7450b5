package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/nerrad567/gray-logic-hub/internal/board"
)

func ptr[T any](v T) *T { return &v }

func newLoadedStore(t *testing.T, backend Backend) *Store {
	t.Helper()
	s := NewStore(backend)
	if _, err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return s
}

func TestStore_LoadAfterSave(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend(nil)

	s := newLoadedStore(t, backend)
	want := sampleConfig()
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := NewStore(backend).Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != want {
		t.Errorf("Load() after Save() = %+v, want %+v", got, want)
	}
}

func TestStore_LoadInvalidEqualsReset(t *testing.T) {
	ctx := context.Background()

	bad := Encode(sampleConfig())
	bad[0], bad[1] = 0xDE, 0xAD

	backend := NewMemoryBackend(bad)
	loaded, err := NewStore(backend).Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	reset, err := NewStore(NewMemoryBackend(nil)).Reset(ctx)
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	if loaded != reset {
		t.Errorf("Load() on bad magic = %+v, want Reset() = %+v", loaded, reset)
	}

	// The defaults must have been written back.
	data, err := backend.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got, err := Decode(data); err != nil || got != reset {
		t.Errorf("persisted record = %+v, %v; want defaults", got, err)
	}
}

func TestStore_LoadMissingRecord(t *testing.T) {
	got, err := NewStore(NewMemoryBackend(nil)).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != Defaults() {
		t.Errorf("Load() = %+v, want Defaults()", got)
	}
}

func TestStore_ResetDefaults(t *testing.T) {
	got, err := NewStore(NewMemoryBackend(nil)).Reset(context.Background())
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	if got.WiFi != (Credentials{}) {
		t.Errorf("WiFi = %+v, want empty", got.WiFi)
	}
	if got.AP.SSID != DefaultAPSSID || got.AP.Password != DefaultAPPassword {
		t.Errorf("AP = %+v", got.AP)
	}
	if got.Board != board.DevKit || got.Profile != board.Resolve(board.DevKit) {
		t.Errorf("board = %v profile = %+v, want DevKit", got.Board, got.Profile)
	}
	f := got.Features
	if !f.DHT || !f.Light || !f.Motion || f.Relay != [4]bool{true, true, true, true} || !f.LED || !f.Motor {
		t.Errorf("features = %+v, want all enabled except logging", f)
	}
	if f.Logging {
		t.Error("logging should default to off")
	}
	if got.SensorIntervalSeconds != 2 || got.LogIntervalSeconds != 60 {
		t.Errorf("intervals = %d/%d, want 2/60", got.SensorIntervalSeconds, got.LogIntervalSeconds)
	}
}

func TestStore_ResetWriteFailureStillReturnsDefaults(t *testing.T) {
	backend := NewMemoryBackend(nil)
	backend.WriteErr = errors.New("flash worn out")

	got, err := NewStore(backend).Load(context.Background())
	if err == nil {
		t.Error("Load() should report the failed write")
	}
	if got != Defaults() {
		t.Errorf("Load() = %+v, want Defaults()", got)
	}
}

func TestStore_SaveFailureKeepsCurrent(t *testing.T) {
	backend := NewMemoryBackend(nil)
	s := newLoadedStore(t, backend)
	before := s.Current()

	backend.WriteErr = errors.New("disk full")
	if err := s.Save(context.Background(), sampleConfig()); err == nil {
		t.Fatal("Save() should fail")
	}
	if s.Current() != before {
		t.Error("Current() changed after a failed Save()")
	}
}

func TestStore_ApplyUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("empty update is a no-op", func(t *testing.T) {
		backend := NewMemoryBackend(nil)
		s := newLoadedStore(t, backend)
		before := s.Current()
		backend.WriteErr = errors.New("must not write")

		got, restart, err := s.ApplyUpdate(ctx, Update{})
		if err != nil {
			t.Fatalf("ApplyUpdate() error = %v", err)
		}
		if got != before || restart {
			t.Errorf("ApplyUpdate({}) = %+v restart=%v, want unchanged", got, restart)
		}
	})

	t.Run("device name only", func(t *testing.T) {
		s := newLoadedStore(t, NewMemoryBackend(nil))
		before := s.Current()

		got, restart, err := s.ApplyUpdate(ctx, Update{DeviceName: ptr("X")})
		if err != nil {
			t.Fatalf("ApplyUpdate() error = %v", err)
		}
		if restart {
			t.Error("renaming should not require a restart")
		}

		want := before
		want.DeviceName = "X"
		if got != want {
			t.Errorf("ApplyUpdate() = %+v, want %+v", got, want)
		}
	})

	t.Run("board change resolves layout then applies pins", func(t *testing.T) {
		s := newLoadedStore(t, NewMemoryBackend(nil))

		got, restart, err := s.ApplyUpdate(ctx, Update{
			BoardType: ptr(int(board.S2Mini)),
			LEDPin:    ptr(40),
		})
		if err != nil {
			t.Fatalf("ApplyUpdate() error = %v", err)
		}
		if !restart {
			t.Error("board change should require a restart")
		}
		want := board.Resolve(board.S2Mini).With(board.RoleLED, 40)
		if got.Board != board.S2Mini || got.Profile != want {
			t.Errorf("profile = %+v, want %+v", got.Profile, want)
		}
	})

	t.Run("feature flag requires restart", func(t *testing.T) {
		s := newLoadedStore(t, NewMemoryBackend(nil))
		_, restart, err := s.ApplyUpdate(ctx, Update{EnableMotor: ptr(false)})
		if err != nil || !restart {
			t.Errorf("ApplyUpdate(enableMotor=false) restart=%v err=%v, want true/nil", restart, err)
		}
	})

	t.Run("persists", func(t *testing.T) {
		backend := NewMemoryBackend(nil)
		s := newLoadedStore(t, backend)
		if _, _, err := s.ApplyUpdate(ctx, Update{WiFiSSID: ptr("attic")}); err != nil {
			t.Fatalf("ApplyUpdate() error = %v", err)
		}
		reloaded, err := NewStore(backend).Load(ctx)
		if err != nil || reloaded.WiFi.SSID != "attic" {
			t.Errorf("reloaded WiFi.SSID = %q, %v", reloaded.WiFi.SSID, err)
		}
	})
}

func TestStore_ApplyUpdateRejects(t *testing.T) {
	tests := []struct {
		name    string
		update  Update
		wantErr error
	}{
		{"pin above devkit range", Update{Relay1Pin: ptr(40)}, ErrInvalidPin},
		{"negative pin", Update{MotionPin: ptr(-1)}, ErrInvalidPin},
		{"pin overflows byte", Update{DHTPin: ptr(300)}, ErrInvalidPin},
		{"duplicate pin", Update{LEDPin: ptr(26)}, board.ErrDuplicatePin},
		{"bad board", Update{BoardType: ptr(7)}, ErrInvalidBoard},
		{"zero interval", Update{SensorInterval: ptr(0)}, ErrInvalidInterval},
		{"long name", Update{DeviceName: ptr("this-device-name-is-far-too-long-to-fit")}, ErrFieldTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newLoadedStore(t, NewMemoryBackend(nil))
			before := s.Current()

			got, restart, err := s.ApplyUpdate(context.Background(), tt.update)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ApplyUpdate() error = %v, want %v", err, tt.wantErr)
			}
			if got != before || restart || s.Current() != before {
				t.Error("rejected update must leave the configuration unchanged")
			}
		})
	}
}

func TestFlat(t *testing.T) {
	c := sampleConfig()

	plain := c.Flat(false)
	if plain.WiFiPassword != "correct horse" || plain.APPassword != DefaultAPPassword {
		t.Errorf("unredacted passwords = %q/%q", plain.WiFiPassword, plain.APPassword)
	}
	if plain.BoardType != int(board.S2Mini) || plain.Relay1Pin != 16 || plain.EnableRelay3 {
		t.Errorf("flat view = %+v", plain)
	}

	redacted := c.Flat(true)
	if redacted.WiFiPassword != redactedValue || redacted.APPassword != redactedValue {
		t.Errorf("redacted passwords = %q/%q", redacted.WiFiPassword, redacted.APPassword)
	}

	c.WiFi.Password = ""
	if got := c.Flat(true).WiFiPassword; got != "" {
		t.Errorf("empty password redacted to %q, want empty", got)
	}
}
