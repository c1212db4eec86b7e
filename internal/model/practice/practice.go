package practice

// Profile captures the practice knowledge the receptionist can speak to:
// who the clinic is, when it is open, and the policies callers ask about.
type Profile struct {
	Name          string   `json:"name"`
	Location      string   `json:"location"`
	Hours         string   `json:"hours"`
	Parking       string   `json:"parking"`
	Insurance     []string `json:"insurance"`
	Services      []string `json:"services"`
	Policies      []string `json:"policies"`
	Greeting      string   `json:"greeting"`
	EmergencyNote string   `json:"emergencyNote"`
}

// Seed returns the default clinic profile used when no override is supplied.
func Seed() Profile {
	return Profile{
		Name:     "Dr. Smith's medical practice",
		Location: "123 Main St, Anytown, USA",
		Hours:    "Monday-Friday 9 AM - 5 PM",
		Parking:  "Available in front of the building and in the adjacent parking garage",
		Insurance: []string{
			"Blue Cross", "Aetna", "UnitedHealth",
		},
		Services: []string{
			"General check-ups and physicals",
			"Vaccinations and immunizations",
			"Basic medical procedures",
			"Health screenings",
			"Prescription refills",
			"Medical certificates",
			"Specialist referrals",
		},
		Policies: []string{
			"24-hour cancellation policy",
			"New patients need to arrive 15 minutes early",
			"Bring ID and insurance card to appointments",
			"Mask requirements based on current health guidelines",
			"Telehealth options available for eligible visits",
		},
		Greeting:      "Good morning! Thank you for calling Dr. Smith's office. How can I assist you today?",
		EmergencyNote: "Direct urgent cases to the nearest ER or call 911",
	}
}
