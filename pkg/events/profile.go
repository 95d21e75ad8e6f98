package events

const (
	ProfileCustomerCreatedType Type = "profile.customer.created"
	ProfileProviderCreatedType Type = "profile.provider.created"
	ProfileCustomerUpdatedType Type = "profile.customer.updated"
	ProfileProviderUpdatedType Type = "profile.provider.updated"
)

const (
	ProfileTypeCustomer = "customer"
	ProfileTypeProvider = "provider"
)

// ProfileCreated is produced by the profile store; the routing key depends on
// ProfileType.
type ProfileCreated struct {
	UserID      int64  `json:"user_id"`
	ProfileType string `json:"profile_type"`
}

func (e ProfileCreated) EventType() Type {
	if e.ProfileType == ProfileTypeProvider {
		return ProfileProviderCreatedType
	}
	return ProfileCustomerCreatedType
}
func (ProfileCreated) Exchange() string     { return ExchangeProfiles }
func (e ProfileCreated) AggregateID() int64 { return e.UserID }

type ProfileUpdated struct {
	UserID        int64    `json:"user_id"`
	ProfileType   string   `json:"profile_type"`
	UpdatedFields []string `json:"updated_fields"`
}

func (e ProfileUpdated) EventType() Type {
	if e.ProfileType == ProfileTypeProvider {
		return ProfileProviderUpdatedType
	}
	return ProfileCustomerUpdatedType
}
func (ProfileUpdated) Exchange() string     { return ExchangeProfiles }
func (e ProfileUpdated) AggregateID() int64 { return e.UserID }
