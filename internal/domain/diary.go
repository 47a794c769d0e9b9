package domain

// ChecklistLength is the fixed number of entries on each side of a day's
// checklist.
const ChecklistLength = 25

// DaysInRamadan bounds the day numbering and the diary record size.
const DaysInRamadan = 30

// DiaryDay holds one day's checklists. The companion web app writes these;
// the bot only reads them.
type DiaryDay struct {
	Good []bool `bson:"good" json:"good"`
	Bad  []bool `bson:"bad" json:"bad"`
}

// DiaryRecord is a user's diary document: up to 30 day slots keyed by day
// number. Days the user never opened are simply absent.
type DiaryRecord struct {
	UserID int64
	Days   map[int]DiaryDay
}

// Day returns the entry for a 1-based day number.
func (r DiaryRecord) Day(n int) (DiaryDay, bool) {
	day, ok := r.Days[n]
	return day, ok
}

// CountTrue reports how many entries in the checklist are checked.
func CountTrue(list []bool) int {
	count := 0
	for _, v := range list {
		if v {
			count++
		}
	}
	return count
}
