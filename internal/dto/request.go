package dto

// SubmitRequest is the payload for a new download request.
// Every field is required; the email doubles as the requester identity.
type SubmitRequest struct {
	RequesterName string `json:"requesterName" binding:"required" validate:"required"`
	Organization  string `json:"organization" binding:"required" validate:"required"`
	Email         string `json:"email" binding:"required,email" validate:"required,email"`
	Reason        string `json:"reason" binding:"required" validate:"required"`
}

// SubmitResponse returns the created request id.
type SubmitResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// DecideRequest is the admin review payload.
type DecideRequest struct {
	Decision string `json:"decision" binding:"required,oneof=accept refuse"`
}

// AdminLoginRequest carries the shared review secret.
type AdminLoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// AdminLoginResponse returns the issued session token.
type AdminLoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

// PendingCountResponse is the public queue-depth notification.
type PendingCountResponse struct {
	Pending int `json:"pending"`
}
