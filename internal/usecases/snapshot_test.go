package usecases

import "testing"

func TestSnapshotRoundTrip(t *testing.T) {
	modes := InputModes{QuickKeys: true, DragAndDrop: true}
	snapshot := Snapshot{
		Defaults: GameConfig{
			Poles:              4,
			Disks:              7,
			StartPole:          2,
			EndPole:            4,
			IllegalMoves:       true,
			Blindfold:          true,
			ResetOnInvalidMove: true,
		},
		Modes: modes,
	}

	data, err := EncodeSnapshot(snapshot)
	if err != nil {
		t.Fatalf("EncodeSnapshot: %v", err)
	}

	got := DecodeSnapshot(data)
	if got.Defaults != snapshot.Defaults {
		t.Fatalf("defaults = %+v, want %+v", got.Defaults, snapshot.Defaults)
	}
	if got.Modes != modes {
		t.Fatalf("modes = %+v, want %+v", got.Modes, modes)
	}
}

func TestDecodeSnapshotGarbage(t *testing.T) {
	got := DecodeSnapshot([]byte("not json at all"))

	want := DefaultSnapshot()
	if got.Defaults != want.Defaults || got.Modes != want.Modes {
		t.Fatalf("snapshot = %+v, want defaults %+v", got, want)
	}
}

func TestDecodeSnapshotPartialCorruption(t *testing.T) {
	// disks だけ型が壊れている。他のフィールドは生かしたまま、
	// 壊れたフィールドだけ既定値に落ちる。
	data := []byte(`{
		"defaults": {"poles": 4, "disks": "seven", "start_pole": 2},
		"modes": {"quick_keys": false, "swift_keys": "yes"}
	}`)

	got := DecodeSnapshot(data)

	if got.Defaults.Poles != 4 {
		t.Fatalf("poles = %d, want 4", got.Defaults.Poles)
	}
	if got.Defaults.Disks != 5 {
		t.Fatalf("disks = %d, want default 5", got.Defaults.Disks)
	}
	if got.Defaults.StartPole != 2 {
		t.Fatalf("start pole = %d, want 2", got.Defaults.StartPole)
	}
	if got.Modes.QuickKeys {
		t.Fatal("quick keys must be disabled")
	}
	if !got.Modes.SwiftKeys {
		t.Fatal("corrupt swift keys field must fall back to the default")
	}
}

func TestDecodeSnapshotMissingSections(t *testing.T) {
	got := DecodeSnapshot([]byte(`{"defaults": {"disks": 8}}`))

	if got.Defaults.Disks != 8 {
		t.Fatalf("disks = %d, want 8", got.Defaults.Disks)
	}
	if got.Defaults.Poles != 3 {
		t.Fatalf("poles = %d, want default 3", got.Defaults.Poles)
	}
	if got.Modes != DefaultInputModes() {
		t.Fatalf("modes = %+v, want defaults", got.Modes)
	}
}
