package calendarsync

import (
	"github.com/redis/go-redis/v9"
	"schedulesync.xdoubleu.com/apps/calendarsync/pkg/gcal"
	"schedulesync.xdoubleu.com/apps/calendarsync/pkg/sumdu"
)

type Clients struct {
	Schedule sumdu.Client
	Calendar gcal.Connector
	// Redis is optional, without it passes are only exclusive per process.
	Redis *redis.Client
}
