package response

import "github.com/artxchange/artx-api/internal/domain"

type LoginResponse struct {
	Token   string         `json:"token"`
	Account domain.Account `json:"account"`
}
