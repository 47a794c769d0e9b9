package telegram

import (
	"fmt"
	"strings"

	"github.com/go-telegram/bot/models"
)

// Button labels on the persistent reply menu. These exact strings are also
// matched against incoming text, so they must not drift from the keyboard.
const (
	ButtonOpenDiary  = "📖 Kundalikni ochish"
	ButtonMorningDua = "🌙 Saharlik duosi"
	ButtonEveningDua = "✨ Iftorlik duosi"
	ButtonFeedback   = "✍️ Taklif va e'tirozlar"
	ButtonAbout      = "ℹ️ Bot haqida"
)

const (
	textBismillah = "Bismillah!"

	textMenu = "Asosiy menyu:"

	textStatusOK = "Bot ishlamoqda! ✅"

	textOpenDiary = "Ramazon kundaligini ochish uchun quyidagi tugmani bosing:"

	textMorningDua = "🌙 *SAHARLIK DUOSI*\n\n" +
		"*Navaytu an asuma sovma shahri ramazona minal fajri ilal mag'ribi, xolisan lillahi ta'ala. Allohu akbar.*\n\n" +
		"_Ma'nosi:_ Ramazon oyining ro'zasini xolis Alloh uchun subhdan to kun botguncha tutmoqni niyat qildim. Alloh buyukdir."

	textEveningDua = "✨ *IFTORLIK DUOSI*\n\n" +
		"*Allohumma laka sumtu va bika amantu va 'alayka tavakkaltu va 'ala rizqika aftartu, fag'firli ya g'offaru ma qoddamtu va ma axxortu.*\n\n" +
		"_Ma'nosi:_ Ey Alloh, ushbu ro'zamni Sen uchun tutdim va Senga iymon keltirdim va Senga tavakkal qildim va bergan rizqing bilan iftor qildim. Ey gunohlarni afv etuvchi Zot, mening avvalgi va keyingi gunohlarimni mag'firat qil."

	textFeedbackPrompt = "Marhamat, o'z taklif yoki e'tirozlaringizni yozib qoldiring. Sizning xabaringiz adminga yetkaziladi."

	textAbout = "Ushbu bot [Ikrom Sharif](https://t.me/IkromSharif/6886) ustozni kanaliga joylangan Ramazon [jadval](https://t.me/IkromSharif/6886) asosida tayyorlandi.\n\n" +
		"Alloh ta'olo ushbu Ramazonni barchamizga barokatli qilsin, Alloh barchamizdan rozi bo'lsin. Omiyn!"

	textGenericError = "⚠️ Xatolik yuz berdi. Iltimos, qayta urinib ko'ring: /start"

	textFeedbackConfirm = "✅ Xabaringiz adminga yuborildi. Rahmat!"

	textAdminReplyDelivered = "✅ Javobingiz foydalanuvchiga yuborildi."
	textAdminReplyFailed    = "❌ Xatolik: Foydalanuvchiga yuborish imkoni bo'lmadi."

	adminReplyPrefix = "💌 *Admindan javob keldi:*\n\n"

	textTestMorningStarted = "Saharlik xabarnomasi testi yuborilmoqda..."
	textTestEveningStarted = "Kechki hisobot xabarnomasi testi yuborilmoqda..."
	textTestReportStarted  = "Hisobot testi yuborilmoqda..."

	textNoContentToday = "Bugungi kun uchun hadis hali joylanmagan. Keyinroq urinib ko'ring."
)

func welcomeText(firstName string) string {
	return fmt.Sprintf("Assalomu alaykum, %s!\n\nRamazon kundaligiga xush kelibsiz. Bu bot orqali siz kundalik amallaringizni kuzatib borishingiz mumkin.", firstName)
}

// feedbackForwardText renders the admin-facing copy of a user's free-text
// message with enough metadata to reply in context.
func feedbackForwardText(from *models.User, text string) string {
	name := strings.TrimSpace(from.FirstName + " " + from.LastName)
	username := "yo'q"
	if from.Username != "" {
		username = "@" + from.Username
	}

	return fmt.Sprintf("👤 *Kimdan:* %s\n🆔 *ID:* %d\n🔗 *Username:* %s\n\n💬 *Xabar:* %s",
		name, from.ID, username, text)
}

func statusStatsText(users, pendingBroadcasts int64) string {
	return fmt.Sprintf("%s\n\n👥 Foydalanuvchilar: %d\n📢 Kutilayotgan e'lonlar: %d",
		textStatusOK, users, pendingBroadcasts)
}
