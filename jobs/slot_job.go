package jobs

import (
	"context"
	"log"
)

type ExpiredSlotCounter interface {
	ExpiredOpenCount(ctx context.Context) (int64, error)
}

func ReportExpiredOpenSlots(slots ExpiredSlotCounter) func() {
	return func() {
		log.Println("Running job: ReportExpiredOpenSlots...")
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		n, err := slots.ExpiredOpenCount(ctx)
		if err != nil {
			log.Printf("Error counting expired open slots: %v", err)
			return
		}
		if n == 0 {
			log.Println("No expired open slots found.")
			return
		}
		log.Printf("%d open slot(s) have ended without a booking.", n)
	}
}
