package logger

import "time"

func timeAgo() time.Time { return time.Now().Add(-time.Millisecond) }
