package users

import "github.com/google/uuid"

// ProfileDTO is the transport shape for a user's own profile.
type ProfileDTO struct {
	ID             uuid.UUID `json:"id"`
	DisplayName    string    `json:"display_name"`
	HostelBlock    string    `json:"hostel_block,omitempty"`
	DefaultAddress string    `json:"default_address,omitempty"`
	WalletBalance  int       `json:"wallet_balance"`
}
