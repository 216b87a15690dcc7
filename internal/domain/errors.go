package domain

import "errors"

var (
	// ErrInvalidConfiguration はパズル設定が不変条件を満たさない場合に返す。
	ErrInvalidConfiguration = errors.New("invalid puzzle configuration")
)
