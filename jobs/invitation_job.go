package jobs

import (
	"context"
	"log"
	"time"
)

const jobTimeout = 30 * time.Second

type InvitationPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// PurgeExpiredInvitations deletes call invitations whose TTL has passed.
// Lookups already hide them, so a late run only costs storage.
func PurgeExpiredInvitations(calls InvitationPurger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		n, err := calls.PurgeExpired(ctx)
		if err != nil {
			log.Printf("Error purging expired call invitations: %v", err)
			return
		}
		if n > 0 {
			log.Printf("Purged %d expired call invitation(s).", n)
		}
	}
}
