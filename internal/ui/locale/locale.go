// Package locale resolves the bilingual (English/Indonesian) strings shown on
// the recruitment page.
package locale

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/Its-donkey/Symphony-apply/internal/ui/model"
)

// Lang selects one of the supported string tables.
type Lang string

const (
	English    Lang = "en"
	Indonesian Lang = "id"
)

// Default is used whenever no usable preference is available.
const Default = English

// Supported lists the languages with a complete string table.
var Supported = []Lang{English, Indonesian}

// Strings holds every text key rendered anywhere on the page.
type Strings struct {
	// Hero and page chrome.
	BadgeOpen     string
	BadgeClosed   string
	HeroTitle     string
	HeroDesc      string
	DatePrefix    string
	FooterRights  string
	FooterRules   string
	FooterStore   string
	FooterDiscord string

	// Config lifecycle views.
	Loading    string
	ErrorTitle string
	ErrorDesc  string
	Retry      string

	// Application form.
	FormTitle       string
	FormSubtitle    string
	LabelIGN        string
	LabelDiscord    string
	LabelAge        string
	LabelTimezone   string
	LabelRole       string
	LabelExperience string
	LabelReason     string
	Submit          string
	Submitting      string
	SuccessTitle    string
	SuccessDesc     string
	SubmitAnother   string
	SubmitError     string
	TryAgain        string
	ClosedTitle     string
	ClosedDesc      string
	Protected       string
	RequiredField   string
	GenericError    string

	// Status board.
	BoardTitle        string
	BoardSubtitle     string
	TimelineTitle     string
	TimelineDesc      string
	RoleHelper        string
	RoleHelperDesc    string
	RoleBuilder       string
	RoleBuilderDesc   string
	RoleDeveloper     string
	RoleDeveloperDesc string
	ReqAge            string
	ReqMic            string
	ReqPortfolio      string
	ReqExperience     string
	StageStart        string
	StageReview       string
	StageEnd          string
	Now               string

	// Navbar.
	NavApply  string
	NavRoles  string
	NavWiki   string
	NavOnline string
	LangLabel string
}

var tables = map[Lang]Strings{
	English: {
		BadgeOpen:     "Applications Open",
		BadgeClosed:   "Applications Closed",
		HeroTitle:     "Craft the Future of",
		HeroDesc:      "We are seeking dedicated Moderators, Builders, and Developers to help us maintain the gold standard of Minecraft Survival.",
		DatePrefix:    "Until",
		FooterRights:  "Not affiliated with Mojang AB.",
		FooterRules:   "Rules",
		FooterStore:   "Store",
		FooterDiscord: "Discord",

		Loading:    "ESTABLISHING CONNECTION...",
		ErrorTitle: "Connection Failed",
		ErrorDesc:  "Could not retrieve application data from the server. The backend might be offline.",
		Retry:      "Retry Connection",

		FormTitle:       "Start Application",
		FormSubtitle:    "Fill out the details below. Honesty is key.",
		LabelIGN:        "In-Game Name (IGN)",
		LabelDiscord:    "Discord Username",
		LabelAge:        "Age",
		LabelTimezone:   "Timezone",
		LabelRole:       "Applying For",
		LabelExperience: "Previous Experience",
		LabelReason:     "Why Symphony?",
		Submit:          "Submit Application",
		Submitting:      "Sending...",
		SuccessTitle:    "Application Queued",
		SuccessDesc:     "Your application has been logged. Join our Discord and wait for a ticket ping.",
		SubmitAnother:   "Submit Another",
		SubmitError:     "Submission Failed",
		TryAgain:        "Try Again",
		ClosedTitle:     "Applications Closed",
		ClosedDesc:      "We are not accepting new staff applications at this time. Please check back later.",
		Protected:       "Protected by Anti-Bot Verification",
		RequiredField:   "This field is required.",
		GenericError:    "Unknown error occurred",

		BoardTitle:        "Current Openings",
		BoardSubtitle:     "View the timeline and available positions for this recruitment cycle.",
		TimelineTitle:     "Recruitment Timeline",
		TimelineDesc:      "Applications close automatically on March 1st.",
		RoleHelper:        "Helper / Moderator",
		RoleHelperDesc:    "Frontline community support and chat moderation.",
		RoleBuilder:       "Builder",
		RoleBuilderDesc:   "Creating maps, lobbies, and seasonal events.",
		RoleDeveloper:     "Developer",
		RoleDeveloperDesc: "Plugin development (Java/Kotlin) and optimization.",
		ReqAge:            "Age 16+",
		ReqMic:            "Microphone",
		ReqPortfolio:      "Portfolio",
		ReqExperience:     "Experience",
		StageStart:        "Apps Open",
		StageReview:       "Reviewing",
		StageEnd:          "Closing",
		Now:               "NOW",

		NavApply:  "Apply",
		NavRoles:  "Open Roles",
		NavWiki:   "Wiki",
		NavOnline: "Online",
		LangLabel: "EN",
	},
	Indonesian: {
		BadgeOpen:     "Pendaftaran Dibuka",
		BadgeClosed:   "Pendaftaran Ditutup",
		HeroTitle:     "Bangun Masa Depan",
		HeroDesc:      "Kami mencari Moderator, Builder, dan Developer berdedikasi untuk membantu kami menjaga standar terbaik Minecraft Survival.",
		DatePrefix:    "Sampai",
		FooterRights:  "Tidak berafiliasi dengan Mojang AB.",
		FooterRules:   "Peraturan",
		FooterStore:   "Toko",
		FooterDiscord: "Discord",

		Loading:    "MENGHUBUNGKAN KE SERVER...",
		ErrorTitle: "Koneksi Gagal",
		ErrorDesc:  "Gagal mengambil data dari server. Backend mungkin sedang offline.",
		Retry:      "Coba Lagi",

		FormTitle:       "Mulai Pendaftaran",
		FormSubtitle:    "Isi detail di bawah ini. Kejujuran adalah kunci.",
		LabelIGN:        "Nama Minecraft (IGN)",
		LabelDiscord:    "Username Discord",
		LabelAge:        "Umur",
		LabelTimezone:   "Zona Waktu",
		LabelRole:       "Melamar Sebagai",
		LabelExperience: "Pengalaman Sebelumnya",
		LabelReason:     "Kenapa Symphony?",
		Submit:          "Kirim Lamaran",
		Submitting:      "Mengirim...",
		SuccessTitle:    "Lamaran Terkirim",
		SuccessDesc:     "Lamaran Anda telah dicatat. Bergabunglah dengan Discord kami dan tunggu info selanjutnya.",
		SubmitAnother:   "Kirim Lainnya",
		SubmitError:     "Gagal Mengirim",
		TryAgain:        "Coba Lagi",
		ClosedTitle:     "Pendaftaran Ditutup",
		ClosedDesc:      "Kami tidak menerima pendaftaran staff baru saat ini. Silakan cek kembali nanti.",
		Protected:       "Dilindungi Verifikasi Anti-Bot",
		RequiredField:   "Kolom ini wajib diisi.",
		GenericError:    "Terjadi kesalahan yang tidak diketahui",

		BoardTitle:        "Posisi Tersedia",
		BoardSubtitle:     "Lihat jadwal dan posisi yang tersedia untuk periode rekrutmen ini.",
		TimelineTitle:     "Jadwal Rekrutmen",
		TimelineDesc:      "Pendaftaran ditutup otomatis pada 1 Maret.",
		RoleHelper:        "Helper / Moderator",
		RoleHelperDesc:    "Dukungan komunitas dan moderasi chat.",
		RoleBuilder:       "Builder",
		RoleBuilderDesc:   "Membuat map, lobby, dan event musiman.",
		RoleDeveloper:     "Developer",
		RoleDeveloperDesc: "Pengembangan plugin (Java/Kotlin) dan optimasi.",
		ReqAge:            "Umur 16+",
		ReqMic:            "Mikrofon",
		ReqPortfolio:      "Portofolio",
		ReqExperience:     "Pengalaman",
		StageStart:        "Buka",
		StageReview:       "Review",
		StageEnd:          "Tutup",
		Now:               "NOW",

		NavApply:  "Daftar",
		NavRoles:  "Posisi",
		NavWiki:   "Wiki",
		NavOnline: "Online",
		LangLabel: "ID",
	},
}

// Resolve returns the complete string table for lang. Unknown selectors fall
// back to Default.
func Resolve(lang Lang) Strings {
	if t, ok := tables[lang]; ok {
		return t
	}
	return tables[Default]
}

// Parse maps a user-supplied selector ("en", "ID ", "id-ID") to a supported Lang.
func Parse(raw string) (Lang, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.IndexAny(value, "-_"); i > 0 {
		value = value[:i]
	}
	for _, lang := range Supported {
		if value == string(lang) {
			return lang, true
		}
	}
	return "", false
}

// Toggle flips between the two supported languages.
func (l Lang) Toggle() Lang {
	if l == Indonesian {
		return English
	}
	return Indonesian
}

var matcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Indonesian,
})

// Negotiate picks the best supported language for an Accept-Language header.
func Negotiate(acceptLanguage string) Lang {
	if strings.TrimSpace(acceptLanguage) == "" {
		return Default
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return Default
	}
	return Supported[index]
}

// FieldLabel returns the form label for an application field name.
func (s Strings) FieldLabel(field string) string {
	switch field {
	case model.FieldIGN:
		return s.LabelIGN
	case model.FieldDiscord:
		return s.LabelDiscord
	case model.FieldAge:
		return s.LabelAge
	case model.FieldTimezone:
		return s.LabelTimezone
	case model.FieldRole:
		return s.LabelRole
	case model.FieldExperience:
		return s.LabelExperience
	case model.FieldReason:
		return s.LabelReason
	}
	return field
}

// StageLabel returns the timeline caption for a stage.
func (s Strings) StageLabel(stage model.Stage) string {
	switch stage {
	case model.StageStart:
		return s.StageStart
	case model.StageReview:
		return s.StageReview
	case model.StageEnd:
		return s.StageEnd
	}
	return string(stage)
}
