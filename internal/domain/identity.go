package domain

import "time"

type Role string

const (
	RoleFarmer   Role = "farmer"
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleFarmer, RoleCustomer, RoleAdmin:
		return true
	}
	return false
}

type Location string

const (
	LocationLagos        Location = "lagos"
	LocationAbuja        Location = "abuja"
	LocationKano         Location = "kano"
	LocationIbadan       Location = "ibadan"
	LocationPortHarcourt Location = "port_harcourt"
	LocationKaduna       Location = "kaduna"
	LocationBenin        Location = "benin"
	LocationMaiduguri    Location = "maiduguri"
	LocationZaria        Location = "zaria"
	LocationAba          Location = "aba"
	LocationJos          Location = "jos"
	LocationIlorin       Location = "ilorin"
)

var Locations = []Location{
	LocationLagos, LocationAbuja, LocationKano, LocationIbadan,
	LocationPortHarcourt, LocationKaduna, LocationBenin, LocationMaiduguri,
	LocationZaria, LocationAba, LocationJos, LocationIlorin,
}

func (l Location) Valid() bool {
	for _, known := range Locations {
		if l == known {
			return true
		}
	}
	return false
}

// Identity mirrors the backend auth user for the lifetime of a session.
type Identity struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at,omitempty"`
}

func (i *Identity) Confirmed() bool {
	return i != nil && i.EmailConfirmedAt != nil && !i.EmailConfirmedAt.IsZero()
}

// Tokens are the ephemeral credentials of a backend session.
type Tokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type Profile struct {
	ID                        string     `json:"id"`
	FullName                  string     `json:"full_name"`
	Phone                     *string    `json:"phone,omitempty"`
	Role                      Role       `json:"role"`
	Location                  *Location  `json:"location,omitempty"`
	IsVerified                bool       `json:"is_verified"`
	VerificationCode          *string    `json:"verification_code,omitempty"`
	VerificationCodeExpiresAt *time.Time `json:"verification_code_expires_at,omitempty"`
	CreatedAt                 time.Time  `json:"created_at"`
	UpdatedAt                 time.Time  `json:"updated_at"`
}

// ProfilePatch holds the fields a user may change on their own profile.
type ProfilePatch struct {
	FullName *string   `json:"full_name,omitempty"`
	Phone    *string   `json:"phone,omitempty"`
	Location *Location `json:"location,omitempty"`
}

func (p ProfilePatch) Empty() bool {
	return p.FullName == nil && p.Phone == nil && p.Location == nil
}

// Apply merges the patch into a copy of the profile.
func (p ProfilePatch) Apply(profile Profile) Profile {
	if p.FullName != nil {
		profile.FullName = *p.FullName
	}
	if p.Phone != nil {
		profile.Phone = p.Phone
	}
	if p.Location != nil {
		profile.Location = p.Location
	}
	return profile
}

// SignUpFields become the auth user metadata the backend copies into the
// profile row.
type SignUpFields struct {
	FullName string   `json:"full_name"`
	Phone    string   `json:"phone,omitempty"`
	Role     Role     `json:"role"`
	Location Location `json:"location,omitempty"`
}
