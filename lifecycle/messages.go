package lifecycle

import "fmt"

func strikeMessage(strikes, autoPauseDays int) string {
	switch strikes {
	case 1:
		return "You did not post today. This is your first strike (1/4). Tomorrow is a new chance!"
	case 2:
		return "No post today again. Strike 2/4. Two more and you will be paused automatically."
	case 3:
		return "Strike 3/4. One more missed day and you will be put on an automatic pause."
	default:
		return fmt.Sprintf("Strike 4/4. You are now on an automatic pause for %d days. "+
			"Post during the pause to stay in the community, otherwise you will be removed when it ends.", autoPauseDays)
	}
}

func pauseExpiredRemovalMessage() string {
	return "Your automatic pause has ended without a single post, so you have been removed from the community. " +
		"You can come back any time with a new invite."
}

func subscriptionReminderMessage(days int, club bool) string {
	if club {
		return fmt.Sprintf("Your saved participation days run out in %d days. "+
			"As a club member you keep your discount when you renew.", days)
	}
	return fmt.Sprintf("Your saved participation days run out in %d days. Renew to keep your place.", days)
}

func subscriptionLastDayMessage() string {
	return "Today is your last saved participation day. Renew today to stay in the community."
}

func subscriptionExpiredMessage() string {
	return "Your participation period has ended and you have been removed from the chat. " +
		"Your progress is saved, renew any time to return."
}

func weeklySummaryMessage(w *WeeklyStats) string {
	return fmt.Sprintf("Weekly results: %d of %d weekly members posted this week.", w.Posted, w.TotalActive)
}
