package sumdu

import (
	"context"
	"time"
)

type Client interface {
	GetSchedule(
		ctx context.Context,
		groupCode int,
		from time.Time,
		to time.Time,
	) ([]Record, error)
}
