package http

// Numeric values are u256-scale integers and travel as decimal strings.

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type OpenEpochRequest struct {
	TotalPoints string `json:"total_points"`
}

type EpochInfoDTO struct {
	Epoch               uint64 `json:"epoch"`
	TotalPoints         string `json:"total_points"`
	DistributingBalance string `json:"distributing_balance"`
	OpenedAt            string `json:"opened_at,omitempty"`
}

type OpenEpochResponse struct {
	Status string       `json:"status"`
	Data   EpochInfoDTO `json:"data"`
}

type EpochInfoResponse struct {
	Status string       `json:"status"`
	Data   EpochInfoDTO `json:"data"`
}

type CurrentEpochResponse struct {
	Status string `json:"status"`
	Data   struct {
		Epoch uint64 `json:"epoch"`
	} `json:"data"`
}

type RegisterUserRequest struct {
	UserID         string `json:"user_id"`
	PoolPercentage string `json:"pool_percentage"`
}

type EntitlementDTO struct {
	Epoch          uint64 `json:"epoch"`
	UserID         string `json:"user_id"`
	PoolPercentage string `json:"pool_percentage"`
	Claimed        bool   `json:"claimed"`
	ClaimedAt      string `json:"claimed_at,omitempty"`
}

type RegisterUserResponse struct {
	Status string         `json:"status"`
	Data   EntitlementDTO `json:"data"`
}

type UserEpochRewardDTO struct {
	Epoch            uint64 `json:"epoch"`
	UserID           string `json:"user_id"`
	PoolPercentage   string `json:"pool_percentage"`
	Claimed          bool   `json:"claimed"`
	IsEligible       bool   `json:"is_eligible"`
	CalculatedReward string `json:"calculated_reward"`
}

type UserEpochRewardResponse struct {
	Status string             `json:"status"`
	Data   UserEpochRewardDTO `json:"data"`
}

type ClaimDTO struct {
	Epoch  uint64 `json:"epoch"`
	UserID string `json:"user_id"`
	Amount string `json:"amount"`
}

type ClaimResponse struct {
	Status string   `json:"status"`
	Data   ClaimDTO `json:"data"`
}

type ClaimPreflightResponse struct {
	Status string `json:"status"`
	Data   struct {
		CanClaim bool   `json:"can_claim"`
		Reason   string `json:"reason"`
	} `json:"data"`
}

type SetMaxUserPoolPercentageRequest struct {
	Value string `json:"value"`
}

type RewardsConfigResponse struct {
	Status string `json:"status"`
	Data   struct {
		CurrentEpoch          uint64 `json:"current_epoch"`
		MaxUserPoolPercentage string `json:"max_user_pool_percentage"`
	} `json:"data"`
}

type DepositRequest struct {
	Amount string `json:"amount"`
}

type PoolBalanceResponse struct {
	Status string `json:"status"`
	Data   struct {
		Balance string `json:"balance"`
	} `json:"data"`
}
