package app

import (
	"context"

	"github.com/personnel_accounting/internal/models"
	"github.com/personnel_accounting/internal/services"
	"github.com/personnel_accounting/pkg/email"
)

// ContractDigest converts the contracts report into the mail digest.
func ContractDigest(status *services.ContractsStatus) email.ContractDigest {
	entries := func(list []models.Contract) []email.DigestEntry {
		out := make([]email.DigestEntry, 0, len(list))
		for _, c := range list {
			e := email.DigestEntry{
				EndDate:  c.EndDate,
				DaysLeft: int(c.EndDate.Sub(status.Date).Hours() / 24),
			}
			if m := c.ServiceMember; m != nil {
				e.Name = m.String()
				if m.Position != nil {
					e.Position = m.Position.String()
				}
			}
			out = append(out, e)
		}
		return out
	}
	return email.ContractDigest{
		Date:         status.Date,
		Ending30:     entries(status.Ending30Days.List),
		Ending90:     entries(status.Ending90Days.List),
		Expired:      entries(status.Expired.List),
		ExpiredTotal: status.Expired.Count,
	}
}

// NotifyContracts mails the contract digest to recipients. It returns false
// without sending when nothing needs attention.
func NotifyContracts(ctx context.Context, reporting services.ReportingService, sender *email.Sender, recipients []string) (bool, error) {
	status, err := reporting.ContractsStatus(ctx)
	if err != nil {
		return false, err
	}
	digest := ContractDigest(status)
	if digest.Empty() {
		return false, nil
	}
	if err := sender.SendContractDigest(recipients, digest); err != nil {
		return false, err
	}
	return true, nil
}

