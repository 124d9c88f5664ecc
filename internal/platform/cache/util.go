package cache

import (
	"time"
)

// RefreshHour は米国市場の終値が確定したとみなす現地時刻（時）です。
const RefreshHour = 17

var marketLocation = loadMarketLocation()

// loadMarketLocation はニューヨーク時間を返します。tzdataが無い環境ではEST固定にします。
func loadMarketLocation() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// TimeUntilNext は now から次の loc における hour 時までの期間を返します。
func TimeUntilNext(now time.Time, hour int, loc *time.Location) time.Duration {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)

	// 当日の指定時刻を過ぎている場合は翌日の同時刻を使用
	if !local.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}

// capTTL はキャッシュが次の終値確定を跨がないよう ttl を切り詰めます。
func capTTL(now time.Time, ttl time.Duration) time.Duration {
	if d := TimeUntilNext(now, RefreshHour, marketLocation); d < ttl {
		return d
	}
	return ttl
}
