package dto

// InstituteRegisterRequest payload for new institutes.
type InstituteRegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// InstituteLoginRequest payload for login.
type InstituteLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// InstituteProfileRequest payload for profile completion, including the
// daily service window configuration.
type InstituteProfileRequest struct {
	Address       string `json:"address"`
	Zipcode       string `json:"zipcode"`
	Phone         string `json:"phonenumber"`
	OpensAt       string `json:"opens_at"`
	ClosesAt      string `json:"closes_at"`
	ApproxMinutes int    `json:"approx_minutes_per_person"`
}
