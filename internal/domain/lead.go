package domain

import "time"

// LeadStatus tracks a prospect through the sales funnel.
type LeadStatus string

const (
	LeadStatusNew          LeadStatus = "NEW"
	LeadStatusContacted    LeadStatus = "CONTACTED"
	LeadStatusQualified    LeadStatus = "QUALIFIED"
	LeadStatusProposalSent LeadStatus = "PROPOSAL_SENT"
	LeadStatusNegotiation  LeadStatus = "NEGOTIATION"
	LeadStatusConverted    LeadStatus = "CONVERTED"
	LeadStatusLost         LeadStatus = "LOST"
)

// Valid reports whether s is a known lead status.
func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusProposalSent,
		LeadStatusNegotiation, LeadStatusConverted, LeadStatusLost:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s LeadStatus) Terminal() bool {
	return s == LeadStatusConverted || s == LeadStatusLost
}

// LeadSource records how the lead reached the firm.
type LeadSource string

const (
	LeadSourceWebsite  LeadSource = "WEBSITE"
	LeadSourceReferral LeadSource = "REFERRAL"
	LeadSourcePhone    LeadSource = "PHONE"
	LeadSourceWalkIn   LeadSource = "WALK_IN"
	LeadSourceOther    LeadSource = "OTHER"
)

// Lead is a prospective client captured before onboarding.
type Lead struct {
	ID                string
	LeadID            string
	Name              string
	Email             string
	Phone             string
	CompanyName       string
	Source            LeadSource
	Notes             string
	Status            LeadStatus
	Priority          Priority
	AssignedStaffID   *string
	ServiceItemID     *string
	ConvertedClientID *string
	ConvertedDate     *time.Time
	LostReason        string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
