package dtos

type UserResponse struct {
	Id    string   `json:"id"`
	Email string   `json:"email"`
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles"`
}

type ProfileResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

type AdminDetails struct {
	UserId string   `json:"userId"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
}

type AdminDashboardResponse struct {
	Message      string       `json:"message"`
	AdminDetails AdminDetails `json:"adminDetails"`
}
