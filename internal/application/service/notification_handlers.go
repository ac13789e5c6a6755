package service

import (
	"context"
	"fmt"

	"github.com/traineedesk/internship-workflow/internal/application/dispatcher"
	"github.com/traineedesk/internship-workflow/internal/domain/entity"
	"github.com/traineedesk/internship-workflow/internal/domain/event"
)

// RegisterNotificationHandlers subscribes the notification fan-out to the
// workflow events. Handlers run on the dispatcher's async path, so a slow
// or failing delivery never blocks the transition that raised the event.
func RegisterNotificationHandlers(d dispatcher.Dispatcher, notifications NotificationService) {
	d.SubscribeNamed(event.TypeRequestDecided, "notify-submitter-decided", func(ctx context.Context, evt *event.Event) error {
		submitter := evt.GetPayloadString("submitted_by")
		if submitter == "" {
			return nil
		}

		decision := evt.GetPayloadString("decision")
		status := evt.GetPayloadString("status")

		priority := entity.PriorityNormal
		if decision == entity.DecisionRejected {
			priority = entity.PriorityHigh
		}

		notifications.Push(ctx, submitter,
			"Request decision recorded",
			fmt.Sprintf("Request %s received a %s decision and is now %s", evt.RefNo, decision, status),
			priority)
		return nil
	})

	d.SubscribeNamed(event.TypeMentorAssigned, "notify-mentor-assigned", func(ctx context.Context, evt *event.Event) error {
		mentorID := evt.GetPayloadString("mentor_id")
		traineeName := evt.GetPayloadString("trainee_name")

		if mentorID != "" {
			notifications.Push(ctx, mentorID,
				"New mentee assigned",
				fmt.Sprintf("You have been assigned as mentor for %s (request %s)", traineeName, evt.RefNo),
				entity.PriorityHigh)
		}

		if submitter := evt.GetPayloadString("submitted_by"); submitter != "" {
			notifications.Push(ctx, submitter,
				"Mentor assigned",
				fmt.Sprintf("A mentor has been assigned for request %s", evt.RefNo),
				entity.PriorityNormal)
		}
		return nil
	})

	d.SubscribeNamed(event.TypeRequestCompleted, "notify-request-completed", func(ctx context.Context, evt *event.Event) error {
		for _, key := range []string{"submitted_by", "mentor_id"} {
			if userID := evt.GetPayloadString(key); userID != "" {
				notifications.Push(ctx, userID,
					"Internship completed",
					fmt.Sprintf("Request %s has been completed", evt.RefNo),
					entity.PriorityNormal)
			}
		}
		return nil
	})

	d.SubscribeNamed(event.TypeBatchForwarded, "notify-batch-forwarded", func(ctx context.Context, evt *event.Event) error {
		receiver := evt.GetPayloadString("forwarded_to")
		if receiver == "" {
			return nil
		}

		notifications.Push(ctx, receiver,
			"Batch awaiting review",
			fmt.Sprintf("Batch %s with %d applications from %s is pending your review",
				evt.RefNo, evt.GetPayloadInt("applications_count"), evt.GetPayloadString("department")),
			entity.PriorityHigh)
		return nil
	})

	d.SubscribeNamed(event.TypeBatchReviewed, "notify-batch-reviewed", func(ctx context.Context, evt *event.Event) error {
		forwarder := evt.GetPayloadString("forwarded_by")
		if forwarder == "" {
			return nil
		}

		notifications.Push(ctx, forwarder,
			"Batch reviewed",
			fmt.Sprintf("Batch %s is now %s", evt.RefNo, evt.GetPayloadString("status")),
			entity.PriorityNormal)
		return nil
	})
}
