// Package message renders the WhatsApp texts sent for events.
package message

import (
	"fmt"
	"strings"
	"time"

	"github.com/goodsign/monday"

	"github.com/pkk-kandri/kandri-events/internal/model"
)

// Kind selects the framing of a rendered message.
type Kind string

const (
	// Announcement is sent once, right after an event is created.
	Announcement Kind = "announcement"
	// Reminder is sent the day before the event.
	Reminder Kind = "reminder"
)

const longDateLayout = "Monday, 02 January 2006"

// FormatDate renders d as a long Indonesian date, e.g. "Selasa, 10 Juni 2025".
func FormatDate(d time.Time) string {
	return monday.Format(d, longDateLayout, monday.LocaleIdID)
}

// Render builds the message of the given kind for event.
func Render(kind Kind, event *model.Event) string {
	var sb strings.Builder

	switch kind {
	case Reminder:
		sb.WriteString("*🔔 PENGINGAT ACARA PKK KANDRI 🔔*\n\n")
		sb.WriteString(fmt.Sprintf("⚠️ *%s* akan dilaksanakan *BESOK!* ⚠️\n\n", strings.ToUpper(event.Title)))
	default:
		sb.WriteString("*🌟 PEMBERITAHUAN ACARA PKK KANDRI 🌟*\n\n")
		sb.WriteString(fmt.Sprintf("📣 *%s* 📣\n\n", strings.ToUpper(event.Title)))
	}

	writeDetails(&sb, event)

	switch kind {
	case Reminder:
		sb.WriteString("✅ *Persiapan yang perlu dibawa:*\n")
		sb.WriteString("• Buku catatan & alat tulis\n")
		sb.WriteString("• Kartu anggota PKK\n")
		sb.WriteString("• Semangat dan senyuman terbaik! 😊\n\n")
		sb.WriteString("⭐ Kehadiran Anda sangat berarti bagi kemajuan program PKK Kandri!\n\n")
		sb.WriteString("🌸 *Jangan lupa untuk:*\n")
		sb.WriteString("• Datang tepat waktu\n")
		sb.WriteString("• Mengajak tetangga yang juga anggota PKK\n")
		sb.WriteString("• Berbagi informasi ini ke grup RT masing-masing\n\n")
		sb.WriteString("📲 Untuk konfirmasi kehadiran atau pertanyaan, silakan hubungi koordinator RT.\n\n")
		sb.WriteString("👭 *Bersama Kita Wujudkan Keluarga Sejahtera!* 👭\n\n")
	default:
		sb.WriteString("✨ Mari kita hadiri bersama untuk mempererat silaturahmi dan membangun komunitas yang lebih baik! ✨\n\n")
		sb.WriteString("🔔 *Informasi Penting:*\n")
		sb.WriteString("• Mohon hadir tepat waktu\n")
		sb.WriteString("• Pakaian rapi dan sopan\n")
		sb.WriteString("• Bawa perlengkapan sesuai kebutuhan acara\n")
		sb.WriteString("• Konfirmasi kehadiran kepada koordinator RT masing-masing\n\n")
		sb.WriteString("📲 Untuk informasi lebih lanjut, silakan hubungi koordinator acara.\n\n")
		sb.WriteString("👥 *Bersama Kita Wujudkan PKK Kandri yang Maju dan Sejahtera!* 👥\n\n")
	}

	sb.WriteString("Terima kasih. 🙏")
	return sb.String()
}

func writeDetails(sb *strings.Builder, event *model.Event) {
	sb.WriteString(fmt.Sprintf("📅 *Tanggal:* %s\n", FormatDate(event.Day())))
	sb.WriteString(fmt.Sprintf("⏰ *Waktu:* %s\n", event.Time))
	sb.WriteString(fmt.Sprintf("📍 *Lokasi:* %s\n\n", event.Location))
	sb.WriteString("📝 *Deskripsi Acara:*\n")
	sb.WriteString(event.Description)
	sb.WriteString("\n\n")
}
