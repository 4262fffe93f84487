package domain

// Status represents the internal status of a payment.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	StatusRefunded Status = "REFUNDED"
)

// A pending payment may jump straight to refunded when the provider reports a
// chargeback before we ever saw the approval.
var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected, StatusRefunded},
	StatusApproved: {StatusRefunded},
	StatusRejected: {},
	StatusRefunded: {},
}

func (s Status) String() string { return string(s) }

// IsValid returns true if s is a known status.
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// IsLive returns true while the payment still counts for its order.
func (s Status) IsLive() bool {
	return s == StatusPending || s == StatusApproved
}

// IsTerminal returns true if no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusRefunded
}

// CanTransitionTo returns true if the status can transition to the target status.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Provider names a payment gateway.
type Provider string

const (
	ProviderPIX    Provider = "pix"
	ProviderWechat Provider = "wechat"
)

func (p Provider) String() string { return string(p) }

// IsValid returns true for a supported provider.
func (p Provider) IsValid() bool {
	return p == ProviderPIX || p == ProviderWechat
}
