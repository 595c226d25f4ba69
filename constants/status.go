package constants

// PassSource identifies which trigger surface started a fill pass.
// Stored verbatim in fill_passes.source.
type PassSource string

const (
	SourceCLI   PassSource = "cli"
	SourceInbox PassSource = "inbox"
	SourceGRPC  PassSource = "grpc"
	SourceMCP   PassSource = "mcp"
)

// FailureReason is the stable string form of a per-entry failure.
type FailureReason string

const (
	ReasonNoMatch            FailureReason = "no_match"
	ReasonAlreadyFilled      FailureReason = "already_filled"
	ReasonNotActivated       FailureReason = "not_activated"
	ReasonVerificationFailed FailureReason = "verification_failed"
)
