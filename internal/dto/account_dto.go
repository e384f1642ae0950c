package dto

type RegisterRequest struct {
	Username string `json:"username"`
}

// RegisterResponse carries the generated one-time password. It is returned
// exactly once and never recoverable afterwards.
type RegisterResponse struct {
	Success  bool   `json:"success"`
	Password string `json:"password"`
	Message  string `json:"message"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Success         bool    `json:"success"`
	Username        string  `json:"username"`
	WhitelistedNick *string `json:"whitelistedNick"`
}

type WhitelistRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Nick     string `json:"nick"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
