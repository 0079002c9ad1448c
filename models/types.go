package models

// Election status constants
const (
	StatusDraft  = "draft"
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Credential lifecycle states
const (
	CredentialActive  = "ACTIVE"
	CredentialUsed    = "USED"
	CredentialRevoked = "REVOKED"
	CredentialExpired = "EXPIRED"
)

// Category is a ballot type within one election. The set is closed: the
// canonical payload and the uniqueness constraints are shaped around it.
type Category string

const (
	CategoryCouncil Category = "council"
	CategoryFiscal  Category = "fiscal"
)

// Categories lists every valid category, in tally/display order.
var Categories = []Category{CategoryCouncil, CategoryFiscal}

// ParseCategory validates a category label from the outside world.
func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategoryCouncil, CategoryFiscal:
		return Category(s), true
	}
	return "", false
}

// Cast outcomes. These are values, not errors: an already-voted retry is a
// routine result under concurrent double submits.
const (
	CastAccepted          = "accepted"
	CastAlreadyVoted      = "already_voted"
	CastInvalidCredential = "invalid_credential"
)

// Request types

type CreateElectionRequest struct {
	Name string `json:"name"`
}

type AddChoiceRequest struct {
	Category string `json:"category"`
	Label    string `json:"label"`
}

type RegisterUnitRequest struct {
	Address string `json:"address"`
}

type CastBallotRequest struct {
	Secret   string `json:"secret"`
	Category string `json:"category"`
	ChoiceID string `json:"choice_id"`
}

type SealChainRequest struct {
	Category string `json:"category"`
}

// Response types

type CreateElectionResponse struct {
	ElectionID string `json:"election_id"`
	AdminKey   string `json:"admin_key"`
}

type AddChoiceResponse struct {
	ChoiceID string `json:"choice_id"`
}

type RegisterUnitResponse struct {
	UnitID string `json:"unit_id"`
}

type IssueCredentialResponse struct {
	CredentialID string `json:"credential_id"`
	// Secret is returned exactly once; only its hash is stored.
	Secret string `json:"secret"`
}

type CastBallotResponse struct {
	Outcome string `json:"outcome"`
	// Receipt fields are present only when the outcome is accepted.
	Position int64  `json:"position,omitempty"`
	Digest   string `json:"digest,omitempty"`
}

type SealChainResponse struct {
	Seal Seal `json:"seal"`
}

type TallyResponse struct {
	ElectionID  string        `json:"election_id"`
	Category    string        `json:"category"`
	TotalVotes  int64         `json:"total_votes"`
	HeadDigest  string        `json:"head_digest,omitempty"`
	ChoiceVotes []ChoiceTally `json:"choices"`
}

type ChoiceTally struct {
	ChoiceID string `json:"choice_id"`
	Label    string `json:"label"`
	Votes    int64  `json:"votes"`
}

// Domain types

type Election struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_unix"`
	OpenedAt  *int64 `json:"opened_unix,omitempty"`
	ClosedAt  *int64 `json:"closed_unix,omitempty"`
}

type Choice struct {
	ID         string   `json:"id"`
	ElectionID string   `json:"election_id"`
	Category   Category `json:"category"`
	Label      string   `json:"label"`
}

type Unit struct {
	ID        string `json:"id"`
	Address   string `json:"address"`
	CreatedAt int64  `json:"created_unix"`
}

type Credential struct {
	ID         string `json:"id"`
	UnitID     string `json:"unit_id"`
	ElectionID string `json:"election_id"`
	SecretHash string `json:"-"` // Never expose in JSON
	State      string `json:"state"`
	IssuedAt   int64  `json:"issued_unix"`
	ConsumedAt *int64 `json:"consumed_unix,omitempty"`
}

type BallotRecord struct {
	ID           string   `json:"id"`
	ElectionID   string   `json:"election_id"`
	Category     Category `json:"category"`
	UnitID       string   `json:"unit_id"`
	ChoiceID     string   `json:"choice_id"`
	CredentialID string   `json:"credential_id"`
	Position     int64    `json:"position"`
	PrevDigest   string   `json:"prev_digest"`
	Digest       string   `json:"digest"`
	CastAt       int64    `json:"cast_unix"`
	IPHash       *string  `json:"-"` // Never expose in JSON
	UserAgent    *string  `json:"-"` // Never expose in JSON
}

type Seal struct {
	ElectionID  string   `json:"election_id"`
	Category    Category `json:"category"`
	Digest      string   `json:"digest"`
	RecordCount int64    `json:"record_count"`
	SealedAt    int64    `json:"sealed_unix"`
	SealedBy    string   `json:"sealed_by"`
}

type AuditEvent struct {
	ID         string `json:"id"`
	ElectionID string `json:"election_id"`
	Actor      string `json:"actor"`
	Action     string `json:"action"`
	Subject    string `json:"subject"`
	OccurredAt int64  `json:"occurred_unix"`
}

// Verify report types

// Verify failure reasons, reported with the offending chain position.
const (
	FailureBrokenLink   = "broken_link"
	FailureHashMismatch = "hash_mismatch"
	FailurePositionGap  = "position_gap"
)

// Seal comparison outcomes for a verify run.
const (
	SealMatch    = "match"
	SealMismatch = "mismatch"
	SealNone     = "none"
)

type VerifyFailure struct {
	Position int64  `json:"position"`
	Reason   string `json:"reason"`
	Detail   string `json:"detail,omitempty"`
}

type VerifyReport struct {
	ElectionID  string          `json:"election_id"`
	Category    Category        `json:"category"`
	Valid       bool            `json:"valid"`
	RecordCount int64           `json:"record_count"`
	Failures    []VerifyFailure `json:"failures,omitempty"`
	SealStatus  string          `json:"seal_status"`
	FoldDigest  string          `json:"fold_digest"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
