package usecases

import (
	"context"
	"time"
)

// ScoreRepository は完走記録を永続化・復元するインタフェースである。
type ScoreRepository interface {
	// Save は新しい完走記録を永続化する。
	Save(ctx context.Context, header Header, score Score) error
	// LoadAll は永続化された全記録を Header ごとにまとめて返す。
	// 並び順は保証しない。呼び出し側がソート挿入で取り込む。
	LoadAll(ctx context.Context) (map[Header][]Score, error)
}

// Clock は現在時刻を取得するインタフェース。
type Clock interface {
	Now() time.Time
}

// IDGenerator は新しい識別子を発行するインタフェース。
type IDGenerator interface {
	NewID() string
}
