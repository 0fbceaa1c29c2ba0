package booking

import (
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Appointment lifecycle states. Rows are created pending; transitions
// happen through the admin endpoints only.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Appointment is a persisted booking.
type Appointment struct {
	ID              uuid.UUID `json:"id"`
	ReferenceNumber string    `json:"reference_number"`
	PatientName     string    `json:"patient_name"`
	PatientEmail    string    `json:"patient_email"`
	PatientPhone    string    `json:"patient_phone"`
	PatientDOB      string    `json:"patient_dob"`
	ServiceType     string    `json:"service_type"`
	Date            string    `json:"appointment_date"`
	Time            string    `json:"appointment_time"`
	Reason          string    `json:"reason"`
	MedicalHistory  []string  `json:"medical_history"`
	Status          string    `json:"status"`
	IsEmergency     bool      `json:"is_emergency"`
	IsNewPatient    bool      `json:"is_new_patient"`
	Locale          string    `json:"locale"`
	CreatedAt       time.Time `json:"created_at"`
}

// BookingRequest is the JSON body the public site submits.
type BookingRequest struct {
	ServiceType    string   `json:"serviceType"`
	Date           string   `json:"date"`
	Time           string   `json:"time"`
	IsEmergency    bool     `json:"isEmergency"`
	FirstName      string   `json:"firstName"`
	LastName       string   `json:"lastName"`
	Phone          string   `json:"phone"`
	Email          string   `json:"email"`
	DOB            string   `json:"dob"`
	IsNewPatient   *bool    `json:"isNewPatient"`
	Reason         string   `json:"reason"`
	MedicalHistory []string `json:"medicalHistory"`
	AcceptTerms    bool     `json:"acceptTerms"`
	AcceptPrivacy  bool     `json:"acceptPrivacy"`
	Locale         string   `json:"locale"`
}

// Algerian national format: +213 followed by 8 or 9 digits.
var phonePattern = regexp.MustCompile(`^\+213[0-9]{8,9}$`)

// Validate checks the request and returns field-keyed messages in the
// public form's wording. The input is not normalized; the site submits
// values exactly as entered.
func (r *BookingRequest) Validate() FieldErrors {
	errs := FieldErrors{}

	if r.ServiceType == "" {
		errs.Add("serviceType", "Service requis")
	}
	if r.Date == "" {
		errs.Add("date", "Date requise")
	}
	if r.Time == "" {
		errs.Add("time", "Heure requise")
	}
	if r.FirstName == "" {
		errs.Add("firstName", "Prénom requis")
	}
	if r.LastName == "" {
		errs.Add("lastName", "Nom requis")
	}
	if len(r.Phone) < 6 || !phonePattern.MatchString(r.Phone) {
		errs.Add("phone", "Format de téléphone algérien (+213)")
	}
	if !validEmail(r.Email) {
		errs.Add("email", "Email invalide")
	}
	if r.DOB == "" {
		errs.Add("dob", "Date de naissance requise")
	}
	if r.IsNewPatient == nil {
		errs.Add("isNewPatient", "Champ requis")
	}
	if len(r.Reason) < 5 {
		errs.Add("reason", "Merci de préciser le motif")
	}
	if !r.AcceptTerms {
		errs.Add("acceptTerms", "Vous devez accepter les conditions")
	}
	if !r.AcceptPrivacy {
		errs.Add("acceptPrivacy", "Vous devez accepter la politique RGPD")
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// FullName joins first and last name the way the site displays it.
func (r *BookingRequest) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

func validEmail(s string) bool {
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
