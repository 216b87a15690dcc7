package usecases

import "sync"

// ScoreBook は Header ごとの完走記録をメモリ上に保持する。各リストは常に
// 所要時間の昇順を保つ。並び替えは挿入時のソート挿入のみで行い、
// 後からのソートは行わない。
type ScoreBook struct {
	mu     sync.Mutex
	scores map[Header][]Score
}

// NewScoreBook は空の ScoreBook を生成する。
func NewScoreBook() *ScoreBook {
	return &ScoreBook{scores: make(map[Header][]Score)}
}

// Record はスコアを該当 Header のリストへソート挿入する。挿入位置は
// 「自分より厳密に遅い最初の記録」の直前。同タイムの記録は先に記録された方が
// 前に残る（安定な同着ポリシー）。挿入後の順位（0 始まり）を返す。
func (b *ScoreBook) Record(header Header, score Score) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry := b.scores[header]
	for i, existing := range entry {
		if score.Time < existing.Time {
			entry = append(entry[:i], append([]Score{score}, entry[i:]...)...)
			b.scores[header] = entry
			return i
		}
	}
	b.scores[header] = append(entry, score)
	return len(b.scores[header]) - 1
}

// Query は該当 Header の全記録を所要時間の昇順で返す。記録が無い場合は空スライス。
// 返り値はコピーであり、格納済みスコアが書き換わることはない。
func (b *ScoreBook) Query(header Header) []Score {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry := b.scores[header]
	result := make([]Score, len(entry))
	copy(result, entry)
	return result
}

// Get は該当 Header の index 番目（0 始まり、速い順）の記録を返す。
func (b *ScoreBook) Get(header Header, index int) (Score, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry := b.scores[header]
	if index < 0 || index >= len(entry) {
		return Score{}, false
	}
	return entry[index], true
}

// Best は該当 Header の最速記録を返す。記録が無い場合は ok が偽。
func (b *ScoreBook) Best(header Header) (Score, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry := b.scores[header]
	if len(entry) == 0 {
		return Score{}, false
	}
	return entry[0], true
}

// Headers は記録が存在する全 Header を返す。順序は不定。
func (b *ScoreBook) Headers() []Header {
	b.mu.Lock()
	defer b.mu.Unlock()

	headers := make([]Header, 0, len(b.scores))
	for header := range b.scores {
		headers = append(headers, header)
	}
	return headers
}

// Load は永続化済みの記録一式をソート挿入で取り込む。起動時の復元用。
func (b *ScoreBook) Load(all map[Header][]Score) {
	for header, scores := range all {
		for _, score := range scores {
			b.Record(header, score)
		}
	}
}
