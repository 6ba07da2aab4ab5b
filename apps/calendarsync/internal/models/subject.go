package models

import (
	"fmt"

	sharedmodels "schedulesync.xdoubleu.com/internal/models"
)

// Subject is one (user, group) unit of reconciliation work.
type Subject struct {
	User            sharedmodels.User
	GroupCode       int
	FetchDays       int
	ReminderMinutes int
}

func (s Subject) Key() string {
	return fmt.Sprintf("%s/%d", s.User.Email, s.GroupCode)
}

// CalendarLabel is the summary of the destination calendar for this subject.
func (s Subject) CalendarLabel(prefix string) string {
	return fmt.Sprintf("%s (%d)", prefix, s.GroupCode)
}

// SubjectsForUser expands a user into one subject per subscribed group.
// Duplicate group codes collapse into a single subject.
func SubjectsForUser(
	user sharedmodels.User,
	defaultFetchDays int,
	defaultReminder int,
) []Subject {
	fetchDays := defaultFetchDays
	if user.FetchDays != nil && *user.FetchDays > 0 {
		fetchDays = *user.FetchDays
	}

	reminder := defaultReminder
	if user.PopupReminder != nil && *user.PopupReminder >= 0 {
		reminder = *user.PopupReminder
	}

	seen := map[int]bool{}
	subjects := []Subject{}
	for _, code := range user.GroupCodes {
		if seen[code] {
			continue
		}
		seen[code] = true

		subjects = append(subjects, Subject{
			User:            user,
			GroupCode:       code,
			FetchDays:       fetchDays,
			ReminderMinutes: reminder,
		})
	}

	return subjects
}
