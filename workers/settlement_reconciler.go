package workers

import (
	"log"
	"time"

	"quiz-settlement-system/models"
	"quiz-settlement-system/services"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// Games younger than this are still considered live; the reconciler only
// touches ones old enough that a normal submission would have settled them.
const reconcileAfter = 2 * time.Minute

// StartSettlementReconciler resumes settlements that never committed: a crash
// after the last participant's grading transaction but before the settlement
// transaction leaves a game in progress with every participant complete.
// SettleIfComplete is idempotent, so re-running it here can never double-pay.
func StartSettlementReconciler(db *gorm.DB, settlement *services.SettlementService) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			cutoff := time.Now().Add(-reconcileAfter)

			var gameIDs []string
			err := db.Model(&models.Game{}).
				Where("status = ? AND updated_at < ?", models.GameStatusInProgress, cutoff).
				Where("NOT EXISTS (SELECT 1 FROM participants p WHERE p.game_id = games.id AND p.completed_at IS NULL)").
				Pluck("id", &gameIDs).Error
			if err != nil {
				log.Printf("[Reconciler] DB error: %v", err)
				return
			}

			for _, id := range gameIDs {
				settled, err := settlement.SettleIfComplete(id)
				if err != nil {
					log.Printf("[Reconciler] Failed to settle game %s: %v", id, err)
					continue
				}
				if settled {
					log.Printf("✅ [Reconciler] Resumed settlement for game %s", id)
				}
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	return sched, nil
}
