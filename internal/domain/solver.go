package domain

import (
	"math"
	"strconv"
	"sync"
)

// RequiredMoves は最短手数の計算結果を表す。解が存在しない設定では
// Impossible、存在する場合は Count(n) のいずれか一方のみを取る。
// どちらであるかを見分けやすくするため、専用のコンストラクタ関数を用意する。

// MoveCount は有限の最短手数を持つ結果を生成する。
func MoveCount(n uint64) RequiredMoves {
	return RequiredMoves{count: &n}
}

// ImpossibleMoves は解が存在しないことを表す結果を生成する。
func ImpossibleMoves() RequiredMoves {
	return RequiredMoves{}
}

// RequiredMoves のゼロ値は Impossible として扱う。
type RequiredMoves struct {
	count *uint64
}

// Count は有限の手数を返す。Impossible の場合は ok が偽。
func (r RequiredMoves) Count() (n uint64, ok bool) {
	if r.count == nil {
		return 0, false
	}
	return *r.count, true
}

// Impossible は解が存在しないかどうかを返す。
func (r RequiredMoves) Impossible() bool {
	return r.count == nil
}

// Number は手数を数値として返す。Impossible は事実上の無限大として
// math.MaxUint64 に写像する。割り算などに使う前に Impossible を確認すること。
func (r RequiredMoves) Number() uint64 {
	if r.count == nil {
		return math.MaxUint64
	}
	return *r.count
}

// String は表示用の文字列を返す。Impossible は「∞」。
func (r RequiredMoves) String() string {
	if r.count == nil {
		return "∞"
	}
	return strconv.FormatUint(*r.count, 10)
}

type solverKey struct {
	disks int
	poles int
}

// Solver は (ディスク数, ポール数) に対する最短手数をメモ化付きで計算する。
// Frame–Stewart の再帰は素朴に評価すると指数時間になるため、
// メモ表はセッションをまたいで使い回す前提で保持する。
// 複数のハンドラから同時に呼ばれるためミューテックスで保護する。
type Solver struct {
	mu   sync.Mutex
	memo map[solverKey]RequiredMoves
}

// NewSolver は空のメモ表を持つ Solver を生成する。
func NewSolver() *Solver {
	return &Solver{memo: make(map[solverKey]RequiredMoves)}
}

// RequiredMoves は disks 枚・poles 本の構成の最短手数を返す。
//
//   - disks == 0 は常に 0 手。
//   - disks == 1 は poles > 1 であれば 1 手。
//   - poles == 3 は閉形式 2^disks - 1。
//   - poles > 3 は Frame–Stewart の漸化式
//     T(d,p) = min_{k in [0,d)} (2*T(k,p) + T(d-k,p-1))
//     を上界として採用し、これを確定値として扱う。
//   - それ以外（ポールが 2 本以下でディスクが複数）は Impossible。
func (s *Solver) RequiredMoves(disks, poles int) RequiredMoves {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameStewart(disks, poles)
}

func (s *Solver) frameStewart(disks, poles int) RequiredMoves {
	key := solverKey{disks: disks, poles: poles}
	if cached, ok := s.memo[key]; ok {
		return cached
	}

	var result RequiredMoves
	switch {
	case disks < 0:
		result = ImpossibleMoves()

	case disks == 0:
		result = MoveCount(0)

	case disks == 1 && poles > 1:
		result = MoveCount(1)

	case poles == 3:
		result = MoveCount(classicMoves(disks))

	case poles > 3:
		// 再帰のたびにディスク数が厳密に減るため必ず停止する。
		best := ImpossibleMoves()
		for k := 0; k < disks; k++ {
			first, ok1 := s.frameStewart(k, poles).Count()
			second, ok2 := s.frameStewart(disks-k, poles-1).Count()
			if !ok1 || !ok2 {
				continue
			}
			moves := 2*first + second
			if best.Impossible() || moves < best.Number() {
				best = MoveCount(moves)
			}
		}
		result = best

	default:
		result = ImpossibleMoves()
	}

	s.memo[key] = result
	return result
}

// classicMoves は 3 本ポールの閉形式 2^disks - 1 を返す。
func classicMoves(disks int) uint64 {
	if disks >= 64 {
		// 2^64 - 1 は uint64 の最大値そのもの。
		return math.MaxUint64
	}
	return (uint64(1) << uint(disks)) - 1
}
