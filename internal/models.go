package internal

import "time"

// Roles. A user's role is fixed at registration and never changes.
const (
	RoleUser     = "user"     // business owner
	RoleDesigner = "designer"
)

// Contest statuses. Transitions are one-way:
// draft -> active -> completed | cancelled.
const (
	ContestDraft     = "draft"
	ContestActive    = "active"
	ContestCompleted = "completed"
	ContestCancelled = "cancelled"
)

// Submission statuses.
const (
	SubPending      = "pending"
	SubAccepted     = "accepted"
	SubPassed       = "passed"
	SubWinner       = "winner"
	SubModification = "modification"
)

const maxRound = 3

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type Brand struct {
	ID          int      `json:"id"`
	UserID      int      `json:"user_id"`
	LogoURL     string   `json:"logo_url"`
	Colors      []string `json:"colors"`
	Fonts       []string `json:"fonts"`
	Description string   `json:"description"`
}

type Contest struct {
	ID                  int    `json:"id"`
	OwnerID             int    `json:"owner_id"`
	BrandID             int    `json:"brand_id"`
	Title               string `json:"title"`
	Description         string `json:"description"`
	Platform            string `json:"platform"`
	PackageTier         string `json:"package_tier"`
	ExpectedSubmissions int    `json:"expected_submissions"`
	WinnersNeeded       int    `json:"winners_needed"`
	Round               int    `json:"round"`
	AcceptedCount       int    `json:"accepted_count"`
	Status              string `json:"status"`
	WinningSubmissionID *int   `json:"winning_submission_id,omitempty"`
}

type Submission struct {
	ID                      int        `json:"id"`
	ContestID               int        `json:"contest_id"`
	DesignerID              int        `json:"designer_id"`
	Round                   int        `json:"round"`
	Status                  string     `json:"status"`
	IsModification          bool       `json:"is_modification"`
	ModificationsAllowed    bool       `json:"modifications_allowed"`
	ModificationRequestedAt *time.Time `json:"modification_requested_at,omitempty"`
}

type Asset struct {
	ID           int    `json:"id"`
	SubmissionID int    `json:"submission_id"`
	URL          string `json:"url"`
	FileName     string `json:"file_name"`
	FileSize     int64  `json:"file_size"`
	ContentType  string `json:"content_type"`
	Width        *int   `json:"width,omitempty"`
	Height       *int   `json:"height,omitempty"`
}

type Comment struct {
	ID           int    `json:"id"`
	SubmissionID int    `json:"submission_id"`
	AuthorID     int    `json:"author_id"`
	Body         string `json:"body"`
	CreatedAt    string `json:"created_at"`
}

// Actor is the authenticated caller as resolved by the Auth middleware.
// Handlers only ever see this shape, never the cookie or bearer token.
type Actor struct {
	ID    int    `json:"id"`
	Role  string `json:"role"`
	Email string `json:"email"`
}
