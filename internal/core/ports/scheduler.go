package ports

type TimeUnit int

const (
	UnixTime TimeUnit = iota
	BlockHeight
)

func (u TimeUnit) String() string {
	if u == BlockHeight {
		return "block"
	}
	return "second"
}

type SchedulerService interface {
	Start()
	Stop()
	Unit() TimeUnit
	// Now returns the current time in the scheduler unit.
	Now() (int64, error)
	AfterNow(expiry int64) bool
	ScheduleTaskOnce(at int64, task func()) error
}
