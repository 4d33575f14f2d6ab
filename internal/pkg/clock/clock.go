package clock

import "time"

// Clock abstracts time.Now so services never read the wall clock ambiently
// and tests can pin the instant.
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }
