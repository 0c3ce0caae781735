package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type GrantAdministratorRequest struct {
	Reason string `json:"reason,omitempty"`
}

type AdministratorDTO struct {
	UserID    string `json:"user_id"`
	GrantedBy string `json:"granted_by"`
	Reason    string `json:"reason,omitempty"`
	GrantedAt string `json:"granted_at"`
}

type GrantAdministratorResponse struct {
	Status string           `json:"status"`
	Data   AdministratorDTO `json:"data"`
}

type RevokeAdministratorResponse struct {
	Status string `json:"status"`
}

type ListAdministratorsResponse struct {
	Status string             `json:"status"`
	Data   []AdministratorDTO `json:"data"`
}
