package i18n

import "fmt"

// Supported locales. Anything else falls back to French, the site default.
const (
	LocaleFR = "fr"
	LocaleAR = "ar"
)

// Catalog is a read-only table of localized strings keyed by (key, locale).
// It is built once at process start and safe for concurrent use.
type Catalog struct {
	entries map[string]map[string]string
}

// NewCatalog builds the catalog of every localized string the booking
// workflow needs: service labels, conflict messages and email copy.
func NewCatalog() *Catalog {
	return &Catalog{entries: map[string]map[string]string{
		"service.general": {
			LocaleFR: "Soins généraux",
			LocaleAR: "العلاج العام",
		},
		"service.esthetic": {
			LocaleFR: "Dentisterie esthétique",
			LocaleAR: "تجميل الأسنان",
		},
		"service.surgery": {
			LocaleFR: "Chirurgie orale",
			LocaleAR: "جراحة الفم",
		},
		"service.emergency": {
			LocaleFR: "Urgence dentaire",
			LocaleAR: "حالة طارئة",
		},
		"booking.date_blocked": {
			LocaleFR: "Date non disponible (jour bloqué).",
			LocaleAR: "هذا التاريخ غير متاح (يوم مغلق).",
		},
		"booking.slot_taken": {
			LocaleFR: "Ce créneau est déjà réservé.",
			LocaleAR: "هذا الموعد محجوز بالفعل.",
		},
		"booking.invalid": {
			LocaleFR: "Invalid data",
			LocaleAR: "Invalid data",
		},
		"booking.write_failed": {
			LocaleFR: "Erreur lors de l'enregistrement du rendez-vous.",
			LocaleAR: "حدث خطأ أثناء تسجيل الموعد.",
		},
		"booking.server_error": {
			LocaleFR: "Erreur serveur.",
			LocaleAR: "خطأ في الخادم.",
		},
		"email.patient.subject": {
			LocaleFR: "Confirmation de votre rendez-vous - Clinique Dentaire Selma",
			LocaleAR: "تأكيد موعدك - عيادة سيلما لطب الأسنان",
		},
		"email.admin.subject": {
			LocaleFR: "Nouveau rendez-vous via le site",
			LocaleAR: "موعد جديد عبر الموقع",
		},
		// Args: patient name, service label, date, time, reference.
		"email.patient.body": {
			LocaleFR: `Bonjour %s,

Votre rendez-vous à la Clinique Dentaire Selma a bien été enregistré.

Soin : %s
Date : %s
Heure : %s
Référence : %s

En cas d'empêchement, merci de nous prévenir à l'avance.

Bien cordialement,
Clinique Dentaire Selma
`,
			LocaleAR: `مرحباً %s,

تم تسجيل موعدك بنجاح في عيادة سيلما لطب الأسنان.

الخدمة: %s
التاريخ: %s
الوقت: %s
رقم المرجع: %s

في حال عدم تمكنك من الحضور، يرجى إبلاغنا مسبقاً.

مع تحيات،
عيادة سيلما لطب الأسنان
`,
		},
		// Args: patient name, service label, date, time, reference.
		"email.admin.body": {
			LocaleFR: `Nouveau rendez-vous réservé via le site :

Nom : %s
Soin : %s
Date : %s
Heure : %s
Référence : %s
`,
			LocaleAR: `موعد جديد تم حجزه عبر الموقع:

الاسم: %s
الخدمة: %s
التاريخ: %s
الوقت: %s
مرجع: %s
`,
		},
	}}
}

// Normalize maps an arbitrary locale tag to a supported locale.
func Normalize(locale string) string {
	if locale == LocaleAR {
		return LocaleAR
	}
	return LocaleFR
}

// Lookup returns the string for (key, locale), falling back to French and
// finally to the key itself when nothing is registered.
func (c *Catalog) Lookup(key, locale string) string {
	byLocale, ok := c.entries[key]
	if !ok {
		return key
	}
	if s, ok := byLocale[Normalize(locale)]; ok {
		return s
	}
	return byLocale[LocaleFR]
}

// Format looks up a template string and interpolates args with fmt.
func (c *Catalog) Format(key, locale string, args ...any) string {
	return fmt.Sprintf(c.Lookup(key, locale), args...)
}

// ServiceLabel returns the localized label for a service type. Unknown
// service types echo back verbatim, matching the public site.
func (c *Catalog) ServiceLabel(serviceType, locale string) string {
	key := "service." + serviceType
	if _, ok := c.entries[key]; !ok {
		return serviceType
	}
	return c.Lookup(key, locale)
}
