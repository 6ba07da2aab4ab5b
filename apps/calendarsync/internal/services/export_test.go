package services

import "time"

func (service *TokenService) SetClock(now func() time.Time) {
	service.now = now
}
