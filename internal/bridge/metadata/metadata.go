package metadata

// Metadata represents the headers carried alongside a chat relay message.
type Metadata map[string]string

// Keys stamped by the bridge on outbound query messages. The gateway mirrors
// them back where its protocol allows, but the core never relies on that.
const (
	KeyCorrelationID = "correlation_id"
	KeySearchID      = "search_id"
	KeyQuery         = "query"
)

// New constructs a Metadata map from alternating key/value pairs. A trailing
// key without a value is dropped.
func New(pairs ...string) Metadata {
	md := make(Metadata, len(pairs)/2)
	for i := 0; i < len(pairs)-1; i += 2 {
		md[pairs[i]] = pairs[i+1]
	}
	return md
}
