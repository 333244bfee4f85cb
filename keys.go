package entrysource

// Persisted tracking keys. These three keys are the only entries the
// SDK ever writes to a backing store.
const (
	KeyUTMParameters       = "esrc_utm_params"
	KeyInitialReferrer     = "esrc_initial_referrer"
	KeyCustomerIdentifiers = "esrc_customer_identifiers"
)

// Outbound tracking headers. Names are case-sensitive wire contract.
const (
	HeaderUTM                 = "X-UTM"
	HeaderInitialReferrer     = "X-ENTRY-SOURCE-INITIAL-REFERRAL"
	HeaderCustomerIdentifiers = "X-CUSTOMER-IDENTIFIERS"
)

// IdentifierSentinel is sent on X-CUSTOMER-IDENTIFIERS when no
// identifier carries a value.
const IdentifierSentinel = "none:none"

// TrackingKeys returns the fixed persisted keys in a stable order.
func TrackingKeys() []string {
	return []string{KeyUTMParameters, KeyInitialReferrer, KeyCustomerIdentifiers}
}
