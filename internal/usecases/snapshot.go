package usecases

import (
	"encoding/json"
	"fmt"
)

// Snapshot はエンジンに関係する設定一式のシリアライズ表現。
// セッションをまたいで引き継ぐ既定のパズル設定と入力モードを保持する
// （スコアは別途リポジトリが永続化する）。
type Snapshot struct {
	Defaults GameConfig `json:"defaults"`
	Modes    InputModes `json:"modes"`
}

// DefaultSnapshot は組み込みの既定値によるスナップショットを返す。
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Defaults: GameConfig{}.withDefaults(),
		Modes:    DefaultInputModes(),
	}
}

// EncodeSnapshot はスナップショットを JSON に直列化する。
func EncodeSnapshot(snapshot Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot は JSON からスナップショットを復元する。読み込みは
// フィールド単位の部分的な欠損・破損に耐える：読めないフィールドは
// そのフィールドだけ既定値に落とし、読み込み全体を失敗させない。
// 全体が JSON オブジェクトでない場合も既定値一式を返す。
func DecodeSnapshot(data []byte) Snapshot {
	snapshot := DefaultSnapshot()

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return snapshot
	}

	if raw, ok := fields["defaults"]; ok {
		snapshot.Defaults = decodeGameConfig(raw, snapshot.Defaults)
	}
	if raw, ok := fields["modes"]; ok {
		snapshot.Modes = decodeInputModes(raw, snapshot.Modes)
	}

	return snapshot
}

func decodeGameConfig(raw json.RawMessage, fallback GameConfig) GameConfig {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fallback
	}

	cfg := fallback
	decodeField(fields, "poles", &cfg.Poles)
	decodeField(fields, "disks", &cfg.Disks)
	decodeField(fields, "start_pole", &cfg.StartPole)
	decodeField(fields, "end_pole", &cfg.EndPole)
	decodeField(fields, "illegal_moves", &cfg.IllegalMoves)
	decodeField(fields, "blindfold", &cfg.Blindfold)
	decodeField(fields, "extra_mode", &cfg.ExtraMode)
	decodeField(fields, "reset_on_invalid_move", &cfg.ResetOnInvalidMove)
	return cfg.withDefaults()
}

func decodeInputModes(raw json.RawMessage, fallback InputModes) InputModes {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fallback
	}

	modes := fallback
	decodeField(fields, "quick_keys", &modes.QuickKeys)
	decodeField(fields, "swift_keys", &modes.SwiftKeys)
	decodeField(fields, "click_play", &modes.ClickPlay)
	decodeField(fields, "drag_and_drop", &modes.DragAndDrop)
	return modes
}

// decodeField は 1 フィールドだけを復元する。欠損・型不一致は無視して
// 既存の値（既定値）を残す。
func decodeField[T any](fields map[string]json.RawMessage, key string, dst *T) {
	raw, ok := fields[key]
	if !ok {
		return
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return
	}
	*dst = value
}
