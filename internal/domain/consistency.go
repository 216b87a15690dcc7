package domain

import "math"

// Consistency は 1 回のランの打鍵リズムの安定度を [0,1] で返す。1 に近いほど
// 手の間隔が揃っている。各手の経過時刻から連続する間隔（デルタ）を取り、
// 1 - (母標準偏差 / 平均) を 0..1 にクランプした値をスコアとする。
//
// 境界条件:
//   - デルタが 2 個未満（手数 2 以下）の場合は 1.0。
//   - 平均が 0（全デルタが 0）の場合は分散も 0 なので 1.0 とする。
//   - デルタは飽和減算で求めるため、経過時刻が逆順でも負にはならない。
func Consistency(moves []Move) float64 {
	if len(moves) < 3 {
		return 1.0
	}

	deltas := make([]float64, 0, len(moves)-1)
	for i := 1; i < len(moves); i++ {
		delta := moves[i].Elapsed - moves[i-1].Elapsed
		if delta < 0 {
			delta = 0
		}
		deltas = append(deltas, delta.Seconds())
	}

	var sum float64
	for _, d := range deltas {
		sum += d
	}
	mean := sum / float64(len(deltas))
	if mean == 0 {
		return 1.0
	}

	var variance float64
	for _, d := range deltas {
		diff := d - mean
		variance += diff * diff
	}
	variance /= float64(len(deltas))

	score := 1.0 - math.Sqrt(variance)/mean
	if score < 0 {
		return 0.0
	}
	if score > 1 {
		return 1.0
	}
	return score
}
