package aim

type AimLevel string

const (
	AimLevelYear  AimLevel = "year"
	AimLevelMonth AimLevel = "month"
	AimLevelWeek  AimLevel = "week"
	AimLevelDay   AimLevel = "day"
)

var AllLevels = []AimLevel{
	AimLevelYear,
	AimLevelMonth,
	AimLevelWeek,
	AimLevelDay,
}

func (l AimLevel) IsValid() bool {
	for _, v := range AllLevels {
		if l == v {
			return true
		}
	}
	return false
}

// ParentLevel is the tier exactly one above l. Year has no parent tier and
// month aims are never linked upward, so both return false.
func (l AimLevel) ParentLevel() (AimLevel, bool) {
	switch l {
	case AimLevelDay:
		return AimLevelWeek, true
	case AimLevelWeek:
		return AimLevelMonth, true
	default:
		return "", false
	}
}

type AimStatus string

const (
	AimStatusActive  AimStatus = "active"
	AimStatusDone    AimStatus = "done"
	AimStatusNotDone AimStatus = "not_done"
	AimStatusFailed  AimStatus = "failed"
)

var AllStatuses = []AimStatus{
	AimStatusActive,
	AimStatusDone,
	AimStatusNotDone,
	AimStatusFailed,
}

func (s AimStatus) IsValid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}
