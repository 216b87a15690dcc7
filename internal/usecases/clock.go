package usecases

import (
	"time"

	"github.com/google/uuid"
)

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

type defaultIDGenerator struct{}

func (defaultIDGenerator) NewID() string {
	return uuid.NewString()
}
