package domain

import (
	"fmt"
	"time"
)

// 通常モードおよびエクストラモードで許容するポール数・ディスク数の上限。
const (
	MaxDisks = 64
	MaxPoles = 16

	MaxDisksNormal = 30
	MaxPolesNormal = 9
)

// Move は 1 回の移動を表す。Elapsed はラン開始からの経過時間、
// From / To は 1 始まりのポール番号。
type Move struct {
	Elapsed time.Duration `json:"elapsed"`
	From    int           `json:"from"`
	To      int           `json:"to"`
}

// Game はハノイの塔の盤面状態と設定を保持するドメインオブジェクト。
// poles は各ポールのディスク列（底が先頭、大きいディスクほど底に近い）。
// 盤面の変更は Shift と Reset のみが行う。
type Game struct {
	poles [][]int

	// PolesCount はポールの本数。2 以上 MaxPoles 以下。
	PolesCount int `json:"poles_count"`
	// DisksCount はディスクの枚数。1 以上 MaxDisks 以下。
	DisksCount int `json:"disks_count"`
	// StartPole は開始ポール番号（1 始まり）。
	StartPole int `json:"start_pole"`
	// EndPole はゴールとなるポール番号。0 の場合は「開始ポール以外ならどこでも良い」。
	EndPole int `json:"end_pole,omitempty"`
	// IllegalMoves が真の場合、大小関係を無視した移動を許可する。
	IllegalMoves bool `json:"illegal_moves,omitempty"`
}

// NewGame は既定設定（3 本ポール・5 枚ディスク・開始ポール 1）のゲームを生成する。
func NewGame() *Game {
	g := &Game{
		PolesCount: 3,
		DisksCount: 5,
		StartPole:  1,
	}
	g.Reset()
	return g
}

// Validate は設定の不変条件を検査する。extraMode が真の場合は上限を引き上げる。
func (g *Game) Validate(extraMode bool) error {
	maxPoles, maxDisks := MaxPolesNormal, MaxDisksNormal
	if extraMode {
		maxPoles, maxDisks = MaxPoles, MaxDisks
	}

	if g.PolesCount < 2 || g.PolesCount > maxPoles {
		return fmt.Errorf("%w: poles_count %d out of range [2,%d]", ErrInvalidConfiguration, g.PolesCount, maxPoles)
	}
	if g.DisksCount < 1 || g.DisksCount > maxDisks {
		return fmt.Errorf("%w: disks_count %d out of range [1,%d]", ErrInvalidConfiguration, g.DisksCount, maxDisks)
	}
	if g.StartPole < 1 || g.StartPole > g.PolesCount {
		return fmt.Errorf("%w: start_pole %d out of range [1,%d]", ErrInvalidConfiguration, g.StartPole, g.PolesCount)
	}
	if g.EndPole != 0 && (g.EndPole < 1 || g.EndPole > g.PolesCount) {
		return fmt.Errorf("%w: end_pole %d out of range [1,%d]", ErrInvalidConfiguration, g.EndPole, g.PolesCount)
	}

	return nil
}

// Reset は全ポールを空にしたうえで、開始ポールへディスクを
// 大きい順（DisksCount..1）に積み直す。常に成功し、何度呼んでも結果は同じ。
func (g *Game) Reset() {
	if len(g.poles) != g.PolesCount {
		g.poles = make([][]int, g.PolesCount)
	}
	for i := range g.poles {
		g.poles[i] = g.poles[i][:0]
	}

	for disk := g.DisksCount; disk >= 1; disk-- {
		g.poles[g.StartPole-1] = append(g.poles[g.StartPole-1], disk)
	}
}

// Shift は from の一番上のディスクを to へ移す。ポール番号は 1 始まり。
// 自分自身への移動・範囲外・空ポールからの移動は常に失敗する。
// IllegalMoves が偽の場合、移動先の一番上のディスクより小さいディスクのみ置ける
// （空のポールにはどのディスクでも置ける）。
// 成功時のみ盤面を変更し true を返す。履歴やスコアの記録は呼び出し側の責務。
func (g *Game) Shift(from, to int) bool {
	if from == to {
		return false
	}
	if from < 1 || from > g.PolesCount || to < 1 || to > g.PolesCount {
		return false
	}

	src := g.poles[from-1]
	if len(src) == 0 {
		return false
	}

	disk := src[len(src)-1]
	dst := g.poles[to-1]
	if !g.IllegalMoves && len(dst) > 0 && disk >= dst[len(dst)-1] {
		return false
	}

	g.poles[from-1] = src[:len(src)-1]
	g.poles[to-1] = append(dst, disk)
	return true
}

// Finished は終局かどうかを判定する。EndPole が指定されていれば、そのポールが
// 完成列（DisksCount..1）と一致するとき真。未指定の場合は開始ポール以外の
// いずれかのポールが完成列を持つとき真（開始ポールは除外するため、
// 1 手も動かしていない盤面が終局扱いになることはない）。
func (g *Game) Finished() bool {
	if g.EndPole != 0 {
		return g.isSolved(g.EndPole - 1)
	}

	for i := 0; i < g.PolesCount; i++ {
		if i != g.StartPole-1 && g.isSolved(i) {
			return true
		}
	}
	return false
}

func (g *Game) isSolved(index int) bool {
	pole := g.poles[index]
	if len(pole) != g.DisksCount {
		return false
	}
	for j, disk := range pole {
		if disk != g.DisksCount-j {
			return false
		}
	}
	return true
}

// Pole は指定ポール（1 始まり）のディスク列のコピーを底から順に返す。
func (g *Game) Pole(index int) []int {
	if index < 1 || index > len(g.poles) {
		return nil
	}
	return append([]int(nil), g.poles[index-1]...)
}

// Poles は全ポールのコピーを返す。描画など読み取り専用の用途向け。
func (g *Game) Poles() [][]int {
	poles := make([][]int, len(g.poles))
	for i := range g.poles {
		poles[i] = append([]int(nil), g.poles[i]...)
	}
	return poles
}

// TopDisk は指定ポールの一番上のディスクを返す。空の場合は ok が偽。
func (g *Game) TopDisk(index int) (disk int, ok bool) {
	if index < 1 || index > len(g.poles) {
		return 0, false
	}
	pole := g.poles[index-1]
	if len(pole) == 0 {
		return 0, false
	}
	return pole[len(pole)-1], true
}
