package utility

import "time"

// timeNow có thể thay thế trong test
var timeNow = time.Now

// Int64Ptr trả về con trỏ tới v
func Int64Ptr(v int64) *int64 {
	return &v
}

// StringPtr trả về con trỏ tới v
func StringPtr(v string) *string {
	return &v
}
