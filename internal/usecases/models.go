package usecases

import (
	"time"

	"github.com/hanoi-speedrapp/main/internal/domain"
)

// Header はハイスコアを公平に比較するための設定サブセット。
// 同一 Header のランだけが同じスコアリストに入る。
// マップのキーとして使うため全フィールドを比較可能な値型にしている
// （EndPole の 0 は「開始ポール以外ならどこでも良い」を表す）。
type Header struct {
	Poles        int  `json:"poles"`
	Disks        int  `json:"disks"`
	Blindfold    bool `json:"blindfold"`
	IllegalMoves bool `json:"illegal_moves"`
	StartPole    int  `json:"start_pole"`
	EndPole      int  `json:"end_pole"`
}

// Score は完走した 1 ランの記録。記録された後は変更されない。
type Score struct {
	// Time はランの総所要時間。
	Time time.Duration `json:"time"`
	// Date は完走時点の壁時計時刻（表示・日付ソート用）。
	Date time.Time `json:"date"`
	// Moves はランの全手順。リプレイと安定度スコアの計算に使う。
	Moves []domain.Move `json:"moves"`
}

// Consistency はこのランの打鍵リズムの安定度を返す。
func (s Score) Consistency() float64 {
	return domain.Consistency(s.Moves)
}

// GameConfig はセッション生成時に受け取るパズル設定。
type GameConfig struct {
	Poles        int  `json:"poles"`
	Disks        int  `json:"disks"`
	StartPole    int  `json:"start_pole"`
	EndPole      int  `json:"end_pole"`
	IllegalMoves bool `json:"illegal_moves"`
	Blindfold    bool `json:"blindfold"`
	ExtraMode    bool `json:"extra_mode"`

	// ResetOnInvalidMove が真の場合、不正な移動の時点でランをやり直す。
	ResetOnInvalidMove bool `json:"reset_on_invalid_move"`

	// Modes は有効にする入力モード。nil の場合は全モードを有効にする。
	Modes *InputModes `json:"modes,omitempty"`
}

// withDefaults はゼロ値のフィールドを既定値（3 本ポール・5 枚ディスク・開始ポール 1）で埋める。
func (c GameConfig) withDefaults() GameConfig {
	if c.Poles == 0 {
		c.Poles = 3
	}
	if c.Disks == 0 {
		c.Disks = 5
	}
	if c.StartPole == 0 {
		c.StartPole = 1
	}
	return c
}

// CompletionSummary は完走画面向けの集計値。Finished 状態のセッションからのみ得られる。
type CompletionSummary struct {
	// Time はランの所要時間。
	Time time.Duration `json:"time"`
	// Moves は実際に行った手数。
	Moves uint64 `json:"moves"`
	// RequiredMoves はこの構成の最短手数の文字列表現（解なしは「∞」）。
	RequiredMoves string `json:"required_moves"`
	// Optimal は最短手数以下で完走したかどうか。
	Optimal bool `json:"optimal"`
	// MovesPerSecond は 1 秒あたりの平均手数。
	MovesPerSecond float64 `json:"moves_per_second"`
	// OptimalMovesPerSecond は最短手数を同じ時間で行った場合の手数毎秒。
	// 最短手数以下で完走した場合と解なしの構成では nil。
	OptimalMovesPerSecond *float64 `json:"optimal_moves_per_second,omitempty"`
	// Consistency はこのランの打鍵リズムの安定度。
	Consistency float64 `json:"consistency"`
	// BestTime は同じ Header の過去ベスト（今回のランを除く）。存在しない場合は nil。
	BestTime *time.Duration `json:"best_time,omitempty"`
	// BestDifference は過去ベストとの差。先行ランが無い場合は nil。
	BestDifference *time.Duration `json:"best_difference,omitempty"`
	// NewHighscore は過去ベストを上回った（または初記録の）場合に真。
	NewHighscore bool `json:"new_highscore"`
}
