package crewshift

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrNotPayable = errors.New("crew shift is not approved")

// PayableShift is a crew shift that payroll and bonus logic may read. The
// only way to get one is Payable, which refuses pending and rejected
// records.
type PayableShift struct {
	id         string
	jobID      string
	crewMember string
	total      decimal.Decimal
	special    decimal.Decimal
}

func Payable(c CrewShift) (PayableShift, error) {
	if c.Status != StatusApproved && c.Status != StatusSynced {
		return PayableShift{}, ErrNotPayable
	}
	return PayableShift{
		id:         c.ID.String(),
		jobID:      c.JobID,
		crewMember: c.CrewMember,
		total:      c.TotalHours,
		special:    c.QCHours,
	}, nil
}

func (p PayableShift) ID() string         { return p.id }
func (p PayableShift) JobID() string      { return p.jobID }
func (p PayableShift) CrewMember() string { return p.crewMember }

func (p PayableShift) TotalHours() decimal.Decimal { return p.total }

// SpecialHours is the quality-control part of the shift.
func (p PayableShift) SpecialHours() decimal.Decimal { return p.special }

func (p PayableShift) RegularHours() decimal.Decimal { return p.total.Sub(p.special) }
