package repository

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hanoi-speedrapp/main/internal/usecases"
)

// SnapshotFileStore は設定スナップショットを JSON ファイルとして永続化する。
type SnapshotFileStore struct {
	path string
}

// NewSnapshotFileStore は SnapshotFileStore を生成する。
func NewSnapshotFileStore(path string) *SnapshotFileStore {
	return &SnapshotFileStore{path: path}
}

// Load はファイルからスナップショットを復元する。ファイルが存在しない、
// あるいは内容が部分的に壊れている場合も必ず有効なスナップショットを返す。
func (s *SnapshotFileStore) Load() usecases.Snapshot {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return usecases.DefaultSnapshot()
	}
	return usecases.DecodeSnapshot(data)
}

// Save はスナップショットをファイルへ書き出す。一時ファイルへ書いてから
// リネームすることで、書き込み途中のクラッシュでも元の内容を壊さない。
func (s *SnapshotFileStore) Save(snapshot usecases.Snapshot) error {
	data, err := usecases.EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}

	return nil
}
