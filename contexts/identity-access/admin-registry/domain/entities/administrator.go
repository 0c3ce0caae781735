package entities

import "time"

// Administrator is a user holding the administrator capability. Holders may
// perform every privileged ledger operation; there is no finer-grained
// permission model.
type Administrator struct {
	UserID    string
	GrantedBy string
	Reason    string
	GrantedAt time.Time
}
