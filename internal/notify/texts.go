package notify

import (
	"fmt"
	"strings"

	"ramadan_diary_bot/internal/domain"
	"ramadan_diary_bot/internal/report"
)

// Fallbacks when the notification settings carry empty messages.
const (
	fallbackMorningMessage = "🌙 Assalomu alaykum! Saharlik vaqti bo'ldi. Bugungi kuningiz xayrli va ibodatlarga boy bo'lsin.\n\nKundalikni to'ldirishni unutmang!"
	fallbackEveningMessage = "✨ Kun yakunlandi. Bugungi amallaringizni sarhisob qilish vaqti keldi."
)

// EveningText renders the evening report: the configured intro, today's
// good/bad counts when the day has an entry, and the closing prompt.
func EveningText(intro string, record domain.DiaryRecord, currentDay int) string {
	var b strings.Builder
	b.WriteString(intro)
	b.WriteString("\n\n")

	if entry, ok := record.Day(currentDay); ok {
		goodDone := domain.CountTrue(entry.Good)
		badDone := domain.CountTrue(entry.Bad)
		fmt.Fprintf(&b, "📊 *Bugungi natijangiz (%d-kun):*\n✅ Yaxshiliklar: %d / %d\n⚠️ Kamchiliklar: %d / %d\n\n",
			currentDay, goodDone, domain.ChecklistLength, badDone, domain.ChecklistLength)
	}

	b.WriteString("Kundalikni to'ldirib, o'zingizni hisob-kitob qiling.")
	return b.String()
}

// ReportText renders the streak/progress summary for one diary record.
func ReportText(record domain.DiaryRecord, currentDay int) string {
	streak := report.Streak(record, currentDay)
	totals := report.Aggregate(record)
	percent := report.ProgressPercent(totals.TotalGood, totals.TotalDays)

	var b strings.Builder
	b.WriteString("📊 *Sizning natijalaringiz:*\n\n")
	fmt.Fprintf(&b, "🔥 Streak: %d kun\n", streak)
	fmt.Fprintf(&b, "📅 To'ldirilgan kunlar: %d / %d\n", totals.TotalDays, domain.DaysInRamadan)
	fmt.Fprintf(&b, "✅ Jami yaxshiliklar: %d\n", totals.TotalGood)
	fmt.Fprintf(&b, "⚠️ Jami kamchiliklar: %d\n", totals.TotalBad)
	fmt.Fprintf(&b, "📈 Umumiy natija: %d%%", percent)
	return b.String()
}
