package usecases

import "errors"

var (
	// ErrValidationFailed は入力値の検証に失敗した場合に返す。
	ErrValidationFailed = errors.New("usecases: validation failed")

	// ErrSessionNotFound は指定されたセッションが存在しない場合に返す。
	ErrSessionNotFound = errors.New("usecases: session not found")

	// ErrScoreNotFound は指定されたスコアが存在しない場合に返す。
	ErrScoreNotFound = errors.New("usecases: score not found")
)
