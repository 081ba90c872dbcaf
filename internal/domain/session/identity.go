package session

// DemoProviderID marks the synthetic demo identity, which never touches the
// remote backend.
const DemoProviderID = "demo"

// Default demo identity values.
const (
	DemoUID   = "demo-user-123"
	DemoEmail = "demo@example.com"
)

// Identity is the authenticated user as the core components see it: an
// opaque uid, an email for display, and the provider that vouched for it.
type Identity struct {
	UID        string `json:"uid"`
	Email      string `json:"email"`
	ProviderID string `json:"providerId"`
}

// IsDemo reports whether this is the synthetic demo identity.
func (i *Identity) IsDemo() bool {
	return i != nil && i.ProviderID == DemoProviderID
}

// NewDemoIdentity returns the built-in demo identity.
func NewDemoIdentity() *Identity {
	return &Identity{
		UID:        DemoUID,
		Email:      DemoEmail,
		ProviderID: DemoProviderID,
	}
}
